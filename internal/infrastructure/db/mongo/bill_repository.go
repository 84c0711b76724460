package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
)

const collectionBills = "bills"

// BillRepository implements ports.BillRepository. Payments and tier charges
// are embedded in the bill document so that Replace swaps them atomically.
type BillRepository struct {
	coll *mongo.Collection
}

func NewBillRepository(db *mongo.Database) *BillRepository {
	return &BillRepository{coll: db.Collection(collectionBills)}
}

type paymentDocument struct {
	ID     string               `bson:"id"`
	PaidAt time.Time            `bson:"paid_at"`
	Amount primitive.Decimal128 `bson:"amount"`
}

type chargeDocument struct {
	From     int64                `bson:"from"`
	To       int64                `bson:"to"`
	Units    int64                `bson:"units"`
	Rate     primitive.Decimal128 `bson:"rate"`
	Subtotal primitive.Decimal128 `bson:"subtotal"`
}

type billDocument struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	CustomerID    string               `bson:"customer_id"`
	CustomerName  string               `bson:"customer_name"`
	MeterNumber   string               `bson:"meter_number"`
	Period        string               `bson:"period"`
	UnitsConsumed int64                `bson:"units_consumed"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Charges       []chargeDocument     `bson:"charges"`
	Status        string               `bson:"status"`
	GeneratedAt   time.Time            `bson:"generated_at"`
	Payments      []paymentDocument    `bson:"payments"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		// decimal.String never produces a form ParseDecimal128 rejects
		// within the ranges billed here.
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func newBillDocument(b *domain.Bill) billDocument {
	doc := billDocument{
		CustomerID:    b.CustomerID,
		CustomerName:  b.CustomerName,
		MeterNumber:   b.MeterNumber,
		Period:        b.Period,
		UnitsConsumed: b.UnitsConsumed,
		Amount:        toDecimal128(b.Amount),
		Charges:       make([]chargeDocument, len(b.Charges)),
		Status:        string(b.Status),
		GeneratedAt:   bsonTime(b.GeneratedAt),
		Payments:      make([]paymentDocument, len(b.Payments)),
	}
	for i, c := range b.Charges {
		doc.Charges[i] = chargeDocument{
			From:     c.From,
			To:       c.To,
			Units:    c.Units,
			Rate:     toDecimal128(c.Rate),
			Subtotal: toDecimal128(c.Subtotal),
		}
	}
	for i, p := range b.Payments {
		doc.Payments[i] = paymentDocument{ID: p.ID, PaidAt: bsonTime(p.PaidAt), Amount: toDecimal128(p.Amount)}
	}
	return doc
}

func (d billDocument) toDomain() *domain.Bill {
	b := &domain.Bill{
		ID:            d.ID.Hex(),
		CustomerID:    d.CustomerID,
		CustomerName:  d.CustomerName,
		MeterNumber:   d.MeterNumber,
		Period:        d.Period,
		UnitsConsumed: d.UnitsConsumed,
		Amount:        fromDecimal128(d.Amount),
		Charges:       make([]domain.Charge, len(d.Charges)),
		Status:        domain.BillStatus(d.Status),
		GeneratedAt:   d.GeneratedAt.UTC(),
		Payments:      make([]domain.Payment, len(d.Payments)),
	}
	for i, c := range d.Charges {
		b.Charges[i] = domain.Charge{
			From:     c.From,
			To:       c.To,
			Units:    c.Units,
			Rate:     fromDecimal128(c.Rate),
			Subtotal: fromDecimal128(c.Subtotal),
		}
	}
	for i, p := range d.Payments {
		b.Payments[i] = domain.Payment{ID: p.ID, PaidAt: p.PaidAt.UTC(), Amount: fromDecimal128(p.Amount)}
	}
	return b
}

func (r *BillRepository) Insert(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc := newBillDocument(bill)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, domain.StorageError("insert bill", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *BillRepository) FindByID(ctx context.Context, id string) (*domain.Bill, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrBillNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc billDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBillNotFound
		}
		return nil, domain.StorageError("find bill", err)
	}
	return doc.toDomain(), nil
}

func (r *BillRepository) List(ctx context.Context, filter ports.BillFilter) ([]*domain.Bill, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := bson.M{}
	if filter.CustomerID != "" {
		query["customer_id"] = filter.CustomerID
	}

	cur, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, domain.StorageError("list bills", err)
	}
	var docs []billDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.StorageError("decode bills", err)
	}

	bills := make([]*domain.Bill, len(docs))
	for i, d := range docs {
		bills[i] = d.toDomain()
	}
	return bills, nil
}

func (r *BillRepository) Replace(ctx context.Context, id string, bill *domain.Bill) (*domain.Bill, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrBillNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc := newBillDocument(bill)
	doc.ID = oid
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return nil, domain.StorageError("replace bill", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrBillNotFound
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the lookup index used by per-customer listings.
func (r *BillRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}, {Key: "generated_at", Value: -1}},
			Options: options.Index().SetName("idx_customer_generated"),
		},
	})
	return err
}
