package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/viatura/checkout/internal/cart"
)

// lineDocument is the bson shape of a cart line. Money travels as strings so
// the decimal values round-trip exactly.
type lineDocument struct {
	LineID          string `bson:"line_id"`
	ProductID       int64  `bson:"product_id"`
	Title           string `bson:"title"`
	Image           string `bson:"image,omitempty"`
	Date            string `bson:"date"`
	Adults          int    `bson:"adults"`
	Children        int    `bson:"children"`
	Infants         int    `bson:"infants"`
	SpecialRequests string `bson:"special_requests,omitempty"`
	UnitPriceAdult  string `bson:"unit_price_adult"`
	Quantity        int    `bson:"quantity"`
	TotalPrice      string `bson:"total_price"`
}

type cartDocument struct {
	SessionID string         `bson:"session_id"`
	Lines     []lineDocument `bson:"lines"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoRepository) Get(ctx context.Context, sessionID string) ([]cart.Line, error) {
	var doc cartDocument

	filter := bson.M{"session_id": sessionID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	lines := make([]cart.Line, len(doc.Lines))
	for i, ld := range doc.Lines {
		line, err := toLine(ld)
		if err != nil {
			return nil, fmt.Errorf("failed to decode cart line %s: %w", ld.LineID, err)
		}
		lines[i] = line
	}
	return lines, nil
}

func (m *mongoRepository) Upsert(ctx context.Context, sessionID string, lines []cart.Line) error {
	now := time.Now()

	docs := make([]lineDocument, len(lines))
	for i, line := range lines {
		docs[i] = toDocument(line)
	}

	filter := bson.M{"session_id": sessionID}
	update := bson.M{
		"$set": bson.M{
			"lines":      docs,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *mongoRepository) Delete(ctx context.Context, sessionID string) error {
	filter := bson.M{"session_id": sessionID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(30 * 24 * 60 * 60), // 30 days TTL
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func toDocument(line cart.Line) lineDocument {
	return lineDocument{
		LineID:          line.ID,
		ProductID:       line.ProductID,
		Title:           line.Title,
		Image:           line.Image,
		Date:            line.Date,
		Adults:          line.Adults,
		Children:        line.Children,
		Infants:         line.Infants,
		SpecialRequests: line.SpecialRequests,
		UnitPriceAdult:  line.UnitPriceAdult.String(),
		Quantity:        line.Quantity,
		TotalPrice:      line.TotalPrice.String(),
	}
}

func toLine(doc lineDocument) (cart.Line, error) {
	unitPrice, err := decimal.NewFromString(doc.UnitPriceAdult)
	if err != nil {
		return cart.Line{}, fmt.Errorf("bad unit price %q: %w", doc.UnitPriceAdult, err)
	}
	totalPrice, err := decimal.NewFromString(doc.TotalPrice)
	if err != nil {
		return cart.Line{}, fmt.Errorf("bad total price %q: %w", doc.TotalPrice, err)
	}

	return cart.Line{
		ID:              doc.LineID,
		ProductID:       doc.ProductID,
		Title:           doc.Title,
		Image:           doc.Image,
		Date:            doc.Date,
		Adults:          doc.Adults,
		Children:        doc.Children,
		Infants:         doc.Infants,
		SpecialRequests: doc.SpecialRequests,
		UnitPriceAdult:  unitPrice,
		Quantity:        doc.Quantity,
		TotalPrice:      totalPrice,
	}, nil
}
