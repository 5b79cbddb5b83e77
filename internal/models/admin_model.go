package models

import "time"

// AdminProfile is an administrator's role document. Admins carry no billing
// state; they are provisioned manually and presumed verified.
type AdminProfile struct {
	ID          string    `json:"id" firestore:"-"`
	DisplayName string    `json:"displayName" firestore:"displayName"`
	Email       string    `json:"email" firestore:"email"`
	MemberSince time.Time `json:"memberSince" firestore:"memberSince,serverTimestamp"`
}
