package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"erent/internal/app/access"
	"erent/internal/app/commands"
)

// IdempotentCommand is implemented by commands that can be safely retried
// with the same Idempotency-Key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // must be a pointer matching the handler result type
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored result of a command already executed under
// the same key by the same caller. Only successful executions are stored, so
// a failed command can be retried with its original key.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			key := idempotencyScope(idCmd)
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return replay(codec, rec, idCmd.ResultPrototype())
			}
			result, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			record := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if result != nil {
				if record.Payload, err = codec.Encode(result); err != nil {
					return nil, err
				}
			}
			if err := store.Save(ctx, record); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

// idempotencyScope keys a record by command, caller and client key so two
// users cannot replay each other's results.
func idempotencyScope(cmd IdempotentCommand) string {
	caller := ""
	if guarded, ok := cmd.(access.Guarded); ok {
		caller = string(guarded.Caller().ID)
	}
	return strings.Join([]string{cmd.Key(), caller, cmd.IdempotencyKey()}, ":")
}

// replay decodes a stored payload into the prototype and returns the value
// it points to, which is what the handler itself returned.
func replay(codec ResultCodec, rec IdempotencyRecord, proto any) (any, error) {
	rv := reflect.ValueOf(proto)
	if proto == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) > 0 {
		if err := codec.Decode(rec.Payload, proto); err != nil {
			return nil, err
		}
	}
	return rv.Elem().Interface(), nil
}
