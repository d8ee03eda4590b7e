package probe

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Func is a single readiness attempt. It returns nil once the resource is
// ready and an error describing why it is not otherwise.
type Func func(ctx context.Context) error

// DBPinger captures the subset of *sql.DB used for readiness checks.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// MongoPinger captures the subset of the MongoDB client used for readiness checks.
type MongoPinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

var errNilComponent = errors.New("not configured")

// NewPingProbe names fn so its failures identify the resource.
func NewPingProbe(name string, fn Func) Func {
	if fn == nil {
		return failing(name, "ping function")
	}
	return ping(name, fn)
}

// NewDBPingProbe pings a database such as PostgreSQL through db.
func NewDBPingProbe(name string, db DBPinger) Func {
	if db == nil {
		return failing(name, "db client")
	}
	return ping(name, db.PingContext)
}

// NewMongoPingProbe pings MongoDB through client. A nil readPref means
// readpref.Primary.
func NewMongoPingProbe(client MongoPinger, readPref *readpref.ReadPref) Func {
	if client == nil {
		return failing("mongo", "client")
	}
	if readPref == nil {
		readPref = readpref.Primary()
	}
	return ping("mongo", func(ctx context.Context) error {
		return client.Ping(ctx, readPref)
	})
}

func ping(name string, fn Func) Func {
	return func(ctx context.Context) error {
		if err := fn(contextOrBackground(ctx)); err != nil {
			return fmt.Errorf("%s probe failed: %w", name, err)
		}
		return nil
	}
}

// failing reports a missing dependency on every call rather than at
// construction, so a misconfigured probe still shows up in wait results.
func failing(name, component string) Func {
	return func(context.Context) error {
		return fmt.Errorf("%s probe: %s %w", name, component, errNilComponent)
	}
}
