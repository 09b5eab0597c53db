package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/splitledger/internal/domain/expense"
	"github.com/splitledger/internal/domain/shared"
)

const (
	// ExpenseCollectionName is the name of the expense journal collection in MongoDB
	ExpenseCollectionName = "expense_journal"
)

// ExpenseRepository implements the expense.Repository interface for MongoDB
type ExpenseRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewExpenseRepository creates a new MongoDB expense journal repository
func NewExpenseRepository(logger *slog.Logger, db *mongo.Database) expense.Repository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// journalIndexModels defines the journal collection's indexes: a unique index
// on expense_id so duplicate deliveries are rejected by the database, and a
// compound index serving the per-ledger listing and recalculation queries.
func journalIndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expense_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_expense_id"),
		},
		{
			Keys:    bson.D{{Key: "ledger_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("ledger_status_created"),
		},
	}
}

// EnsureJournalIndexes creates the journal collection's indexes. Called once
// at startup; CreateMany is a no-op for indexes that already exist.
func EnsureJournalIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ExpenseCollectionName).Indexes().CreateMany(ctx, journalIndexModels())
	if err != nil {
		return fmt.Errorf("failed to create journal indexes: %w", err)
	}
	return nil
}

// Create stores a new journal entry.
// Returns ErrDuplicateEntry if an entry with the same expense ID exists; the
// unique index on expense_id backs this even under concurrent inserts.
func (r *ExpenseRepository) Create(ctx context.Context, entry *expense.JournalEntry) error {
	collection := r.db.Collection(ExpenseCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return expense.ErrDuplicateEntry{ExpenseID: entry.ExpenseID}
		}
		r.logger.Error("Failed to create journal entry",
			"expense_id", entry.ExpenseID.String(),
			"error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return nil
}

// GetByExpenseID retrieves a journal entry by its expense ID.
// Returns ErrEntryNotFound if no entry exists for the given expense.
func (r *ExpenseRepository) GetByExpenseID(ctx context.Context, expenseID uuid.UUID) (*expense.JournalEntry, error) {
	collection := r.db.Collection(ExpenseCollectionName)

	filter := bson.M{"expense_id": expenseID}
	var entry expense.JournalEntry
	err := collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, expense.ErrEntryNotFound{ExpenseID: expenseID}
		}
		r.logger.Error("Failed to get journal entry",
			"expense_id", expenseID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	return &entry, nil
}

// GetByLedgerID retrieves paginated journal entries for a ledger.
// Results are sorted by creation time in descending order (newest first).
func (r *ExpenseRepository) GetByLedgerID(ctx context.Context, ledgerID uuid.UUID, limit, offset int) ([]*expense.JournalEntry, error) {
	collection := r.db.Collection(ExpenseCollectionName)

	filter := bson.M{"ledger_id": ledgerID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get journal entries",
			"ledger_id", ledgerID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*expense.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode journal entries",
			"ledger_id", ledgerID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode journal entries: %w", err)
	}

	return entries, nil
}

// CountByLedgerID counts the total number of journal entries for a ledger
func (r *ExpenseRepository) CountByLedgerID(ctx context.Context, ledgerID uuid.UUID) (int64, error) {
	collection := r.db.Collection(ExpenseCollectionName)

	filter := bson.M{"ledger_id": ledgerID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count journal entries",
			"ledger_id", ledgerID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}

	return count, nil
}

// FindUnsettledByLedger retrieves every applied entry in the ledger, oldest
// first so recalculation replays expenses in their original order.
func (r *ExpenseRepository) FindUnsettledByLedger(ctx context.Context, ledgerID uuid.UUID) ([]*expense.JournalEntry, error) {
	collection := r.db.Collection(ExpenseCollectionName)

	filter := bson.M{
		"ledger_id": ledgerID,
		"status":    shared.ExpenseStatusApplied,
	}
	opts := options.Find().SetSort(bson.M{"created_at": 1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get unsettled journal entries",
			"ledger_id", ledgerID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get unsettled journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*expense.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode unsettled journal entries",
			"ledger_id", ledgerID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode unsettled journal entries: %w", err)
	}

	return entries, nil
}

// MarkSettledByLedger flips every applied entry in the ledger to settled
// after a full settlement completes.
func (r *ExpenseRepository) MarkSettledByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error) {
	collection := r.db.Collection(ExpenseCollectionName)

	filter := bson.M{
		"ledger_id": ledgerID,
		"status":    shared.ExpenseStatusApplied,
	}
	update := bson.M{
		"$set": bson.M{
			"status":       shared.ExpenseStatusSettled,
			"processed_at": time.Now(),
		},
	}

	result, err := collection.UpdateMany(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to settle journal entries",
			"ledger_id", ledgerID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to settle journal entries: %w", err)
	}

	return result.ModifiedCount, nil
}

// UpdateStatus updates the entry's status, failure reason, and processed timestamp.
// Returns ErrEntryNotFound if the entry doesn't exist.
func (r *ExpenseRepository) UpdateStatus(ctx context.Context, expenseID uuid.UUID, status shared.ExpenseStatus, reason string) error {
	collection := r.db.Collection(ExpenseCollectionName)

	filter := bson.M{"expense_id": expenseID}
	update := bson.M{
		"$set": bson.M{
			"status":         status,
			"failure_reason": reason,
			"processed_at":   time.Now(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to update journal entry status",
			"expense_id", expenseID.String(),
			"status", string(status),
			"error", err)
		return fmt.Errorf("failed to update journal entry status: %w", err)
	}

	if result.MatchedCount == 0 {
		return expense.ErrEntryNotFound{ExpenseID: expenseID}
	}

	return nil
}
