// store.go

package main

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the persistence surface the handlers depend on. Each method maps
// to a single driver call against one of the five collections.
type Store interface {
	ListMenus(ctx context.Context) ([]MenuItem, error)
	GetMenu(ctx context.Context, id primitive.ObjectID) (*MenuItem, error)
	InsertMenu(ctx context.Context, item MenuItem) (*mongo.InsertOneResult, error)
	UpdateMenu(ctx context.Context, id primitive.ObjectID, upd MenuUpdate) (*mongo.UpdateResult, error)
	DeleteMenu(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error)

	ListReviews(ctx context.Context) ([]Review, error)

	InsertCart(ctx context.Context, item CartItem) (*mongo.InsertOneResult, error)
	ListCarts(ctx context.Context, email string) ([]CartItem, error)
	DeleteCart(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error)
	DeleteCarts(ctx context.Context, ids []primitive.ObjectID) (*mongo.DeleteResult, error)

	FindUserByEmail(ctx context.Context, email string) (*User, error)
	InsertUser(ctx context.Context, u User) (*mongo.InsertOneResult, error)
	ListUsers(ctx context.Context) ([]User, error)
	GrantAdmin(ctx context.Context, id primitive.ObjectID) (*mongo.UpdateResult, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error)

	InsertPayment(ctx context.Context, p Payment) (*mongo.InsertOneResult, error)
	ListPaymentsByEmail(ctx context.Context, email string) ([]Payment, error)

	AdminStats(ctx context.Context) (*AdminStats, error)
	OrderStats(ctx context.Context) ([]CategoryStat, error)
}

type mongoStore struct {
	menus    *mongo.Collection
	reviews  *mongo.Collection
	carts    *mongo.Collection
	users    *mongo.Collection
	payments *mongo.Collection
}

// ConnectDB dials MongoDB once at process start; the driver pools
// connections internally, so the returned handle is shared by all requests.
func ConnectDB(cfg *Config) (*mongo.Database, error) {
	client, err := mongo.NewClient(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client.Database(cfg.DBName), nil
}

func NewStore(db *mongo.Database) Store {
	return &mongoStore{
		menus:    db.Collection("menus"),
		reviews:  db.Collection("reviews"),
		carts:    db.Collection("carts"),
		users:    db.Collection("users"),
		payments: db.Collection("payments"),
	}
}

// ----- Menus -----

func (s *mongoStore) ListMenus(ctx context.Context) ([]MenuItem, error) {
	cur, err := s.menus.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var items []MenuItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *mongoStore) GetMenu(ctx context.Context, id primitive.ObjectID) (*MenuItem, error) {
	var item MenuItem
	err := s.menus.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *mongoStore) InsertMenu(ctx context.Context, item MenuItem) (*mongo.InsertOneResult, error) {
	return s.menus.InsertOne(ctx, item)
}

func (s *mongoStore) UpdateMenu(ctx context.Context, id primitive.ObjectID, upd MenuUpdate) (*mongo.UpdateResult, error) {
	return s.menus.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": upd})
}

func (s *mongoStore) DeleteMenu(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	return s.menus.DeleteOne(ctx, bson.M{"_id": id})
}

// ----- Reviews -----

func (s *mongoStore) ListReviews(ctx context.Context) ([]Review, error) {
	cur, err := s.reviews.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var reviews []Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ----- Carts -----

func (s *mongoStore) InsertCart(ctx context.Context, item CartItem) (*mongo.InsertOneResult, error) {
	return s.carts.InsertOne(ctx, item)
}

func (s *mongoStore) ListCarts(ctx context.Context, email string) ([]CartItem, error) {
	filter := bson.M{}
	if email != "" {
		filter["email"] = email
	}
	cur, err := s.carts.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var items []CartItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *mongoStore) DeleteCart(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	return s.carts.DeleteOne(ctx, bson.M{"_id": id})
}

func (s *mongoStore) DeleteCarts(ctx context.Context, ids []primitive.ObjectID) (*mongo.DeleteResult, error) {
	return s.carts.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ----- Users -----

func (s *mongoStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *mongoStore) InsertUser(ctx context.Context, u User) (*mongo.InsertOneResult, error) {
	return s.users.InsertOne(ctx, u)
}

func (s *mongoStore) ListUsers(ctx context.Context) ([]User, error) {
	cur, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var users []User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *mongoStore) GrantAdmin(ctx context.Context, id primitive.ObjectID) (*mongo.UpdateResult, error) {
	update := bson.M{"$set": bson.M{"role": "admin"}}
	return s.users.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
}

func (s *mongoStore) DeleteUser(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	return s.users.DeleteOne(ctx, bson.M{"_id": id})
}

// ----- Payments -----

func (s *mongoStore) InsertPayment(ctx context.Context, p Payment) (*mongo.InsertOneResult, error) {
	return s.payments.InsertOne(ctx, p)
}

func (s *mongoStore) ListPaymentsByEmail(ctx context.Context, email string) ([]Payment, error) {
	cur, err := s.payments.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	var payments []Payment
	if err := cur.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// ----- Aggregations -----

func (s *mongoStore) AdminStats(ctx context.Context) (*AdminStats, error) {
	customers, err := s.users.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.menus.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.payments.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := s.payments.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          nil,
			"totalRevenue": bson.M{"$sum": "$price"},
		}}},
	})
	if err != nil {
		return nil, err
	}
	var totals []struct {
		TotalRevenue float64 `bson:"totalRevenue"`
	}
	if err := cur.All(ctx, &totals); err != nil {
		return nil, err
	}
	// no payments yet means no group result; revenue is simply zero
	var revenue float64
	if len(totals) > 0 {
		revenue = totals[0].TotalRevenue
	}

	return &AdminStats{
		Customer: customers,
		Revenue:  revenue,
		Products: products,
		Orders:   orders,
	}, nil
}

// OrderStats expands every purchased menu id into its own row, joins it
// against the menus collection and folds the rows into per-category
// quantity and revenue. Order of the returned slice is unspecified.
func (s *mongoStore) OrderStats(ctx context.Context) ([]CategoryStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$menuIds"}},
		{{Key: "$addFields", Value: bson.M{
			"menuIds": bson.M{"$toObjectId": "$menuIds"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "menus",
			"localField":   "menuIds",
			"foreignField": "_id",
			"as":           "menuItems",
		}}},
		{{Key: "$unwind", Value: "$menuItems"}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$menuItems.category",
			"quantity": bson.M{"$sum": 1},
			"revenue":  bson.M{"$sum": "$menuItems.price"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":      0,
			"category": "$_id",
			"quantity": "$quantity",
			"revenue":  "$revenue",
		}}},
	}

	cur, err := s.payments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var stats []CategoryStat
	if err := cur.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
