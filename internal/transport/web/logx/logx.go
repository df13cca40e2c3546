// Package logx, единый формат логов хендлеров: req_id, op, сообщение и пары ключ/значение.
package logx

import "github.com/rs/zerolog"

func Info(log zerolog.Logger, reqID, op, msg string, kv ...any) {
	fields(log.Info(), reqID, op, kv).Msg(msg)
}

func Error(log zerolog.Logger, reqID, op, msg string, err error, kv ...any) {
	fields(log.Error().Err(err), reqID, op, kv).Msg(msg)
}

func fields(e *zerolog.Event, reqID, op string, kv []any) *zerolog.Event {
	e = e.Str("req_id", reqID).Str("op", op)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(k, kv[i+1])
	}
	return e
}
