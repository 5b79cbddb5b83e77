package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradebridge-backend/internal/models"
)

const productsCollection = "products"

type firestoreProductRepository struct {
	client *firestore.Client
}

// NewFirestoreProductRepository creates a Firestore-backed ProductRepository.
func NewFirestoreProductRepository(client *firestore.Client) ProductRepository {
	return &firestoreProductRepository{client: client}
}

// Create adds a product with an auto-generated document ID and returns it.
func (r *firestoreProductRepository) Create(ctx context.Context, product *models.Product) (string, error) {
	docRef := r.client.Collection(productsCollection).NewDoc()
	product.ID = docRef.ID
	if _, err := docRef.Create(ctx, product); err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	if productID == "" {
		return nil, errors.New("productID cannot be empty")
	}
	snap, err := r.client.Collection(productsCollection).Doc(productID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("product '%s': %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product '%s': %w", productID, err)
	}
	var product models.Product
	if err := snap.DataTo(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product '%s': %w", productID, err)
	}
	product.ID = snap.Ref.ID
	return &product, nil
}

func (r *firestoreProductRepository) ListBySellerID(ctx context.Context, sellerID string) ([]*models.Product, error) {
	if sellerID == "" {
		return nil, errors.New("sellerID cannot be empty")
	}
	iter := r.client.Collection(productsCollection).
		Where("sellerId", "==", sellerID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()
	return collectProducts(iter)
}

// List returns the public catalogue page. startAfter is the document ID of
// the last product on the previous page.
func (r *firestoreProductRepository) List(ctx context.Context, limit int, startAfter string) ([]*models.Product, error) {
	query := r.client.Collection(productsCollection).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if startAfter != "" {
		snap, err := r.client.Collection(productsCollection).Doc(startAfter).Get(ctx)
		if err == nil {
			query = query.StartAfter(snap)
		}
	}
	iter := query.Documents(ctx)
	defer iter.Stop()
	return collectProducts(iter)
}

func (r *firestoreProductRepository) UpdateFields(ctx context.Context, productID string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields)+1)
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
	if _, err := r.client.Collection(productsCollection).Doc(productID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("product '%s': %w", productID, ErrNotFound)
		}
		return fmt.Errorf("failed to update product '%s': %w", productID, err)
	}
	return nil
}

func (r *firestoreProductRepository) Delete(ctx context.Context, productID string) error {
	if _, err := r.client.Collection(productsCollection).Doc(productID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete product '%s': %w", productID, err)
	}
	return nil
}

func collectProducts(iter *firestore.DocumentIterator) ([]*models.Product, error) {
	var products []*models.Product
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate products: %w", err)
		}
		var product models.Product
		if err := doc.DataTo(&product); err != nil {
			// Skip undecodable documents rather than failing the page.
			continue
		}
		product.ID = doc.Ref.ID
		products = append(products, &product)
	}
	return products, nil
}
