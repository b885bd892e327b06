package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront-backend/internal/models"
)

// Mongo is the production Store backed by a MongoDB database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri and verifies the connection with a ping.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) Products() Products {
	return mongoProducts{c: m.db.Collection(CollectionProducts)}
}

func (m *Mongo) Carts() Carts {
	return mongoCarts{c: m.db.Collection(CollectionCarts)}
}

func (m *Mongo) Orders() Orders {
	return mongoOrders{c: m.db.Collection(CollectionOrders)}
}

func (m *Mongo) Users() Users {
	return mongoUsers{c: m.db.Collection(CollectionUsers)}
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func findOne(ctx context.Context, c *mongo.Collection, filter bson.M, out any) error {
	err := c.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s: %w", c.Name(), err)
	}
	return nil
}

func replaceByID(ctx context.Context, c *mongo.Collection, id string, doc any) error {
	_, err := c.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace %s/%s: %w", c.Name(), id, err)
	}
	return nil
}

type mongoProducts struct{ c *mongo.Collection }

func (p mongoProducts) List(ctx context.Context, limit, offset int) ([]models.Product, error) {
	opts := options.Find().SetSkip(int64(offset)).SetLimit(int64(limit))
	cur, err := p.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (p mongoProducts) Get(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := findOne(ctx, p.c, bson.M{"_id": id}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (p mongoProducts) Put(ctx context.Context, product *models.Product) error {
	return replaceByID(ctx, p.c, product.ID, product)
}

type mongoCarts struct{ c *mongo.Collection }

func (cs mongoCarts) Get(ctx context.Context, uid string) (*models.Cart, error) {
	var cart models.Cart
	if err := findOne(ctx, cs.c, bson.M{"_id": uid}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (cs mongoCarts) Put(ctx context.Context, cart *models.Cart) error {
	return replaceByID(ctx, cs.c, cart.UID, cart)
}

type mongoOrders struct{ c *mongo.Collection }

func (o mongoOrders) Create(ctx context.Context, order *models.Order) error {
	if _, err := o.c.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	return nil
}

func (o mongoOrders) ListByUser(ctx context.Context, uid string) ([]models.Order, error) {
	cur, err := o.c.Find(ctx, bson.M{"uid": uid})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (o mongoOrders) Get(ctx context.Context, uid, id string) (*models.Order, error) {
	var order models.Order
	if err := findOne(ctx, o.c, bson.M{"_id": id, "uid": uid}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

type mongoUsers struct{ c *mongo.Collection }

func (u mongoUsers) Get(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, u.c, bson.M{"_id": uid}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u mongoUsers) Put(ctx context.Context, user *models.User) error {
	return replaceByID(ctx, u.c, user.UID, user)
}
