// Package proto encodes game snapshots and client intents in the protobuf
// wire format described by snake.proto. There is no generated code: the
// messages are small enough to encode directly with protowire.
package proto

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/trytobebee/snake_io/pkg/game"
)

var (
	ErrMalformed   = errors.New("proto: malformed message")
	ErrWireType    = errors.New("proto: unexpected wire type")
	ErrEmptyServer = errors.New("proto: server message has no payload")
)

// ServerMessage is what the server pushes to a client: either a state
// snapshot or a game over report.
type ServerMessage struct {
	State    *game.GameState
	GameOver *game.GameOverEvent
}

// Field numbers, see snake.proto
const (
	pointX = 1
	pointY = 2

	stateWidth     = 1
	stateHeight    = 2
	stateSnake     = 3
	stateApple     = 4
	stateDirection = 5
	stateScore     = 6
	stateHighScore = 7
	stateStatus    = 8
	stateAutoPlay  = 9
	stateTicks     = 10

	overScore      = 1
	overHighScore  = 2
	overNewRecord  = 3
	overLength     = 4
	overTicks      = 5
	overCrashPoint = 6

	serverState    = 1
	serverGameOver = 2

	intentAction    = 1
	intentDirection = 2
)

// MarshalServerMessage encodes m. Exactly one payload is written, the state
// taking precedence.
func MarshalServerMessage(m ServerMessage) ([]byte, error) {
	switch {
	case m.State != nil:
		return protowire.AppendBytes(protowire.AppendTag(nil, serverState, protowire.BytesType), appendGameState(nil, *m.State)), nil
	case m.GameOver != nil:
		return protowire.AppendBytes(protowire.AppendTag(nil, serverGameOver, protowire.BytesType), appendGameOver(nil, *m.GameOver)), nil
	}
	return nil, ErrEmptyServer
}

// UnmarshalServerMessage decodes a message produced by MarshalServerMessage
func UnmarshalServerMessage(b []byte) (ServerMessage, error) {
	var m ServerMessage
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case serverState:
			v, n, err := bytesField(typ, b)
			if err != nil {
				return 0, err
			}
			s, err := unmarshalGameState(v)
			if err != nil {
				return 0, fmt.Errorf("state: %w", err)
			}
			m.State, m.GameOver = &s, nil
			return n, nil
		case serverGameOver:
			v, n, err := bytesField(typ, b)
			if err != nil {
				return 0, err
			}
			ev, err := unmarshalGameOver(v)
			if err != nil {
				return 0, fmt.Errorf("game over: %w", err)
			}
			m.State, m.GameOver = nil, &ev
			return n, nil
		}
		return skipField(num, typ, b)
	})
	if err != nil {
		return ServerMessage{}, err
	}
	if m.State == nil && m.GameOver == nil {
		return ServerMessage{}, ErrEmptyServer
	}
	return m, nil
}

// MarshalIntent encodes a client intent
func MarshalIntent(in game.Intent) []byte {
	var b []byte
	b = appendVarintField(b, intentAction, uint64(in.Action))
	if in.Action == game.ActionTurn {
		b = appendVarintField(b, intentDirection, uint64(in.Direction))
	}
	return b
}

// UnmarshalIntent decodes a client intent
func UnmarshalIntent(b []byte) (game.Intent, error) {
	var in game.Intent
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case intentAction:
			v, n, err := varintField(typ, b)
			in.Action = game.Action(v)
			return n, err
		case intentDirection:
			v, n, err := varintField(typ, b)
			in.Direction = game.Direction(v)
			return n, err
		}
		return skipField(num, typ, b)
	})
	return in, err
}

func appendGameState(b []byte, s game.GameState) []byte {
	b = appendInt32Field(b, stateWidth, s.Width)
	b = appendInt32Field(b, stateHeight, s.Height)
	for _, p := range s.Snake {
		b = appendPointField(b, stateSnake, p)
	}
	b = appendPointField(b, stateApple, s.Apple)
	b = appendVarintField(b, stateDirection, uint64(s.Direction))
	b = appendInt32Field(b, stateScore, s.Score)
	b = appendInt32Field(b, stateHighScore, s.HighScore)
	b = appendVarintField(b, stateStatus, uint64(s.Status))
	b = appendBoolField(b, stateAutoPlay, s.AutoPlay)
	b = appendInt32Field(b, stateTicks, s.Ticks)
	return b
}

func unmarshalGameState(b []byte) (game.GameState, error) {
	var s game.GameState
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case stateSnake, stateApple:
			v, n, err := bytesField(typ, b)
			if err != nil {
				return 0, err
			}
			p, err := unmarshalPoint(v)
			if err != nil {
				return 0, err
			}
			if num == stateSnake {
				s.Snake = append(s.Snake, p)
			} else {
				s.Apple = p
			}
			return n, nil
		case stateWidth, stateHeight, stateDirection, stateScore, stateHighScore, stateStatus, stateAutoPlay, stateTicks:
			v, n, err := varintField(typ, b)
			if err != nil {
				return 0, err
			}
			switch num {
			case stateWidth:
				s.Width = int(int32(v))
			case stateHeight:
				s.Height = int(int32(v))
			case stateDirection:
				s.Direction = game.Direction(v)
			case stateScore:
				s.Score = int(int32(v))
			case stateHighScore:
				s.HighScore = int(int32(v))
			case stateStatus:
				s.Status = game.Status(v)
			case stateAutoPlay:
				s.AutoPlay = protowire.DecodeBool(v)
			case stateTicks:
				s.Ticks = int(int32(v))
			}
			return n, nil
		}
		return skipField(num, typ, b)
	})
	return s, err
}

func appendGameOver(b []byte, ev game.GameOverEvent) []byte {
	b = appendInt32Field(b, overScore, ev.Score)
	b = appendInt32Field(b, overHighScore, ev.HighScore)
	b = appendBoolField(b, overNewRecord, ev.NewRecord)
	b = appendInt32Field(b, overLength, ev.Length)
	b = appendInt32Field(b, overTicks, ev.Ticks)
	b = appendPointField(b, overCrashPoint, ev.CrashPoint)
	return b
}

func unmarshalGameOver(b []byte) (game.GameOverEvent, error) {
	var ev game.GameOverEvent
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == overCrashPoint {
			v, n, err := bytesField(typ, b)
			if err != nil {
				return 0, err
			}
			ev.CrashPoint, err = unmarshalPoint(v)
			return n, err
		}
		if num < overScore || num > overTicks {
			return skipField(num, typ, b)
		}
		v, n, err := varintField(typ, b)
		if err != nil {
			return 0, err
		}
		switch num {
		case overScore:
			ev.Score = int(int32(v))
		case overHighScore:
			ev.HighScore = int(int32(v))
		case overNewRecord:
			ev.NewRecord = protowire.DecodeBool(v)
		case overLength:
			ev.Length = int(int32(v))
		case overTicks:
			ev.Ticks = int(int32(v))
		}
		return n, nil
	})
	return ev, err
}

func appendPointField(b []byte, num protowire.Number, p game.Point) []byte {
	var msg []byte
	msg = appendInt32Field(msg, pointX, p.X)
	msg = appendInt32Field(msg, pointY, p.Y)
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func unmarshalPoint(b []byte) (game.Point, error) {
	var p game.Point
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case pointX, pointY:
			v, n, err := varintField(typ, b)
			if num == pointX {
				p.X = int(int32(v))
			} else {
				p.Y = int(int32(v))
			}
			return n, err
		}
		return skipField(num, typ, b)
	})
	return p, err
}

// appendInt32Field writes v as a proto3 int32, omitting the zero value.
// Negative values take the full ten byte varint, like any int32 in protobuf.
func appendInt32Field(b []byte, num protowire.Number, v int) []byte {
	if v == 0 {
		return b
	}
	return appendVarintField(b, num, uint64(int64(int32(v))))
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendVarintField(b, num, protowire.EncodeBool(v))
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// consumeFields walks every field of a message and hands it to fn, which
// returns how many bytes of the value it consumed.
func consumeFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return parseError(n)
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func varintField(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("%w: %v", ErrWireType, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, parseError(n)
	}
	return v, n, nil
}

func bytesField(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("%w: %v", ErrWireType, typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, parseError(n)
	}
	return v, n, nil
}

// skipField drops a field this version does not know about
func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, parseError(n)
	}
	return n, nil
}

func parseError(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
}
