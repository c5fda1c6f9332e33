package pool

import (
	"context"
	"fmt"

	commonspool "github.com/jolestar/go-commons-pool/v2"
	"go.uber.org/zap"

	"github.com/luma/redwire/client"
)

type connFactory struct {
	options client.Options
	log     *zap.Logger
}

func (f *connFactory) MakeObject(ctx context.Context) (*commonspool.PooledObject, error) {
	conn, err := client.Dial(ctx, f.options)
	if err != nil {
		return nil, err
	}

	f.log.Debug("Opened pooled connection", zap.String("addr", conn.Addr()))
	return commonspool.NewPooledObject(conn), nil
}

func (f *connFactory) DestroyObject(ctx context.Context, obj *commonspool.PooledObject) error {
	conn, err := asConn(obj)
	if err != nil {
		return err
	}

	return conn.Close()
}

func (f *connFactory) ValidateObject(ctx context.Context, obj *commonspool.PooledObject) bool {
	conn, err := asConn(obj)
	return err == nil && !conn.Closed()
}

// ActivateObject moves a connection a previous borrower left on another
// database back to the configured one.
func (f *connFactory) ActivateObject(ctx context.Context, obj *commonspool.PooledObject) error {
	conn, err := asConn(obj)
	if err != nil {
		return err
	}

	if conn.DB() == f.options.DB {
		return nil
	}

	return conn.Select(ctx, f.options.DB)
}

func (f *connFactory) PassivateObject(ctx context.Context, obj *commonspool.PooledObject) error {
	return nil
}

func asConn(obj *commonspool.PooledObject) (*client.Conn, error) {
	conn, ok := obj.Object.(*client.Conn)
	if !ok {
		return nil, fmt.Errorf("pool: unexpected object %T", obj.Object)
	}

	return conn, nil
}
