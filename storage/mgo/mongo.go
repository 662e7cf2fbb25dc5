package mgo

import (
	"context"
	"time"

	"QChat/tools/errs"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config represents the MongoDB connection settings.
type Config struct {
	URI         string
	Database    string
	MaxPoolSize int
	MaxRetry    int
}

func (c *Config) norm() {
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = 100
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = 3
	}
}

type Client struct {
	cli *mongo.Client
	db  *mongo.Database
}

func (c *Client) DB() *mongo.Database { return c.db }

func (c *Client) Close(ctx context.Context) error {
	return c.cli.Disconnect(ctx)
}

// Connect dials MongoDB with a bounded retry loop and verifies the
// connection with a ping before handing it out.
func Connect(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, errs.ErrStorage.WrapMsg("mongo uri is required")
	}
	cfg.norm()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(uint64(cfg.MaxPoolSize))

	var (
		cli *mongo.Client
		err error
	)
	for i := 0; i < cfg.MaxRetry; i++ {
		cli, err = connect(ctx, opts)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errs.ErrStorage.Wrap(ctx.Err())
		case <-time.After(time.Second / 2):
		}
	}
	if err != nil {
		return nil, errs.ErrStorage.Wrap(err)
	}
	return &Client{cli: cli, db: cli.Database(cfg.Database)}, nil
}

func connect(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cli, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(dialCtx)
		return nil, err
	}
	return cli, nil
}
