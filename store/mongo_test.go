package store

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"salesbackend/models"
)

func matched(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func productBatch(docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, "inventory.products", mtest.FirstBatch, docs...)
}

func inserted() bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1})
}

type stockUpdate struct {
	id  string
	inc int64
}

// stockUpdates lists the quantity $inc of every update command sent.
func stockUpdates(mt *mtest.T) []stockUpdate {
	var out []stockUpdate
	for _, ev := range mt.GetAllStartedEvents() {
		if ev.CommandName != "update" {
			continue
		}
		update := ev.Command.Lookup("updates", "0").Document()
		out = append(out, stockUpdate{
			id:  update.Lookup("q", "_id").StringValue(),
			inc: update.Lookup("u", "$inc", "quantity").AsInt64(),
		})
	}
	return out
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, ev := range mt.GetAllStartedEvents() {
		names = append(names, ev.CommandName)
	}
	return names
}

func twoLineSale() *models.Sale {
	return &models.Sale{
		ID:     "s1",
		UserID: "u1",
		Date:   "2024-01-01",
		Items: []models.SaleItem{
			{ProductID: "p1", ItemName: "Tea", QuantitySold: 2},
			{ProductID: "p2", ItemName: "Rice", QuantitySold: 5},
		},
	}
}

func equalUpdates(got, want []stockUpdate) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestMongoCommitSaleCompensated(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("commits every line and the sale", func(mt *mtest.T) {
		m := NewMongo(mt.DB)
		mt.AddMockResponses(matched(1), matched(1), inserted())

		if err := m.CommitSale(context.Background(), twoLineSale()); err != nil {
			mt.Fatalf("CommitSale: %v", err)
		}
		want := []stockUpdate{{"p1", -2}, {"p2", -5}}
		if got := stockUpdates(mt); !equalUpdates(got, want) {
			mt.Errorf("updates = %v, want %v", got, want)
		}
	})

	mt.Run("insufficient second line restores the first", func(mt *mtest.T) {
		m := NewMongo(mt.DB)
		mt.AddMockResponses(
			matched(1),
			matched(0),
			productBatch(bson.D{{Key: "_id", Value: "p2"}, {Key: "user_id", Value: "u1"}, {Key: "quantity", Value: 1}}),
			matched(1),
		)

		err := m.CommitSale(context.Background(), twoLineSale())
		if !errors.Is(err, ErrInsufficientStock) {
			mt.Fatalf("err = %v, want ErrInsufficientStock", err)
		}
		want := []stockUpdate{{"p1", -2}, {"p2", -5}, {"p1", 2}}
		if got := stockUpdates(mt); !equalUpdates(got, want) {
			mt.Errorf("updates = %v, want %v", got, want)
		}
		for _, name := range commandNames(mt) {
			if name == "insert" {
				mt.Error("sale inserted after a failed line")
			}
		}
	})

	mt.Run("failed insert restores every line", func(mt *mtest.T) {
		m := NewMongo(mt.DB)
		mt.AddMockResponses(
			matched(1),
			matched(1),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}),
			matched(1),
			matched(1),
		)

		if err := m.CommitSale(context.Background(), twoLineSale()); err == nil {
			mt.Fatal("expected insert error")
		}
		want := []stockUpdate{{"p1", -2}, {"p2", -5}, {"p1", 2}, {"p2", 5}}
		if got := stockUpdates(mt); !equalUpdates(got, want) {
			mt.Errorf("updates = %v, want %v", got, want)
		}
	})

	mt.Run("repeated product is decremented once", func(mt *mtest.T) {
		m := NewMongo(mt.DB)
		mt.AddMockResponses(matched(1), inserted())

		sale := &models.Sale{ID: "s2", UserID: "u1", Items: []models.SaleItem{
			{ProductID: "p1", QuantitySold: 2},
			{ProductID: "p1", QuantitySold: 3},
		}}
		if err := m.CommitSale(context.Background(), sale); err != nil {
			mt.Fatalf("CommitSale: %v", err)
		}
		want := []stockUpdate{{"p1", -5}}
		if got := stockUpdates(mt); !equalUpdates(got, want) {
			mt.Errorf("updates = %v, want %v", got, want)
		}
	})
}

func TestMongoDecrementFailure(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	d := StockDecrement{ProductID: "p1", Quantity: 3}

	cases := []struct {
		name  string
		batch bson.D
		want  error
	}{
		{"missing product", productBatch(), ErrNotFound},
		{"foreign product", productBatch(bson.D{{Key: "_id", Value: "p1"}, {Key: "user_id", Value: "u2"}, {Key: "quantity", Value: 10}}), ErrForbidden},
		{"short stock", productBatch(bson.D{{Key: "_id", Value: "p1"}, {Key: "user_id", Value: "u1"}, {Key: "quantity", Value: 2}}), ErrInsufficientStock},
	}
	for _, tc := range cases {
		mt.Run(tc.name, func(mt *mtest.T) {
			m := NewMongo(mt.DB)
			mt.AddMockResponses(tc.batch)

			if err := m.decrementFailure(context.Background(), d, "u1"); !errors.Is(err, tc.want) {
				mt.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMongoCommitSaleTransactional(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("commits in one transaction", func(mt *mtest.T) {
		m := NewMongo(mt.DB)
		m.transactions = true
		mt.AddMockResponses(matched(1), matched(1), inserted(), mtest.CreateSuccessResponse())

		if err := m.CommitSale(context.Background(), twoLineSale()); err != nil {
			mt.Fatalf("CommitSale: %v", err)
		}
		names := commandNames(mt)
		if len(names) == 0 || names[len(names)-1] != "commitTransaction" {
			mt.Errorf("commands = %v, want trailing commitTransaction", names)
		}
		first := mt.GetAllStartedEvents()[0].Command
		if v, err := first.LookupErr("startTransaction"); err != nil || !v.Boolean() {
			mt.Errorf("first update did not start a transaction: %s", first)
		}
	})

	mt.Run("aborts instead of compensating", func(mt *mtest.T) {
		m := NewMongo(mt.DB)
		m.transactions = true
		mt.AddMockResponses(
			matched(1),
			matched(0),
			productBatch(bson.D{{Key: "_id", Value: "p2"}, {Key: "user_id", Value: "u1"}, {Key: "quantity", Value: 1}}),
			mtest.CreateSuccessResponse(),
		)

		err := m.CommitSale(context.Background(), twoLineSale())
		if !errors.Is(err, ErrInsufficientStock) {
			mt.Fatalf("err = %v, want ErrInsufficientStock", err)
		}
		want := []stockUpdate{{"p1", -2}, {"p2", -5}}
		if got := stockUpdates(mt); !equalUpdates(got, want) {
			mt.Errorf("updates = %v, want %v", got, want)
		}
		names := commandNames(mt)
		if names[len(names)-1] != "abortTransaction" {
			mt.Errorf("commands = %v, want trailing abortTransaction", names)
		}
	})
}

func TestMongoDetectTransactions(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	cases := []struct {
		name  string
		hello bson.D
		want  bool
	}{
		{"replica set", mtest.CreateSuccessResponse(bson.E{Key: "isWritablePrimary", Value: true}, bson.E{Key: "setName", Value: "rs0"}), true},
		{"mongos", mtest.CreateSuccessResponse(bson.E{Key: "isWritablePrimary", Value: true}, bson.E{Key: "msg", Value: "isdbgrid"}), true},
		{"standalone", mtest.CreateSuccessResponse(bson.E{Key: "isWritablePrimary", Value: true}), false},
	}
	for _, tc := range cases {
		mt.Run(tc.name, func(mt *mtest.T) {
			m := NewMongo(mt.DB)
			mt.AddMockResponses(tc.hello)

			if err := m.DetectTransactions(context.Background()); err != nil {
				mt.Fatal(err)
			}
			if m.Transactional() != tc.want {
				mt.Errorf("Transactional() = %v, want %v", m.Transactional(), tc.want)
			}
		})
	}
}
