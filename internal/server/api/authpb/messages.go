// Package authpb defines the wire contract of chatter.auth.AuthService:
// request/response messages, the service descriptor, and client/server
// bindings. Messages travel in protobuf wire format; auth.proto holds the
// schema.
package authpb

import "google.golang.org/protobuf/encoding/protowire"

type RegisterRequest struct {
	Identifier string
	Secret     string
}

func (m *RegisterRequest) marshalWire() []byte {
	b := appendString(nil, 1, m.Identifier)
	return appendString(b, 2, m.Secret)
}

func (m *RegisterRequest) unmarshalWire(b []byte) error {
	*m = RegisterRequest{}
	return fieldSet{strings: map[protowire.Number]*string{1: &m.Identifier, 2: &m.Secret}}.decode(b)
}

type RegisterResponse struct {
	UserId string
}

func (m *RegisterResponse) marshalWire() []byte {
	return appendString(nil, 1, m.UserId)
}

func (m *RegisterResponse) unmarshalWire(b []byte) error {
	*m = RegisterResponse{}
	return fieldSet{strings: map[protowire.Number]*string{1: &m.UserId}}.decode(b)
}

type LoginRequest struct {
	Identifier string
	Secret     string
	// Handoff asks for a one-time exchange code instead of the token pair.
	Handoff bool
}

func (m *LoginRequest) marshalWire() []byte {
	b := appendString(nil, 1, m.Identifier)
	b = appendString(b, 2, m.Secret)
	return appendBool(b, 3, m.Handoff)
}

func (m *LoginRequest) unmarshalWire(b []byte) error {
	*m = LoginRequest{}
	return fieldSet{
		strings: map[protowire.Number]*string{1: &m.Identifier, 2: &m.Secret},
		bools:   map[protowire.Number]*bool{3: &m.Handoff},
	}.decode(b)
}

// LoginResponse carries either the token pair or, for a handoff login, only
// the exchange code.
type LoginResponse struct {
	AccessToken  string
	RefreshToken string
	ExchangeCode string
}

func (m *LoginResponse) marshalWire() []byte {
	b := appendString(nil, 1, m.AccessToken)
	b = appendString(b, 2, m.RefreshToken)
	return appendString(b, 3, m.ExchangeCode)
}

func (m *LoginResponse) unmarshalWire(b []byte) error {
	*m = LoginResponse{}
	return fieldSet{strings: map[protowire.Number]*string{
		1: &m.AccessToken, 2: &m.RefreshToken, 3: &m.ExchangeCode,
	}}.decode(b)
}

type RefreshRequest struct {
	RefreshToken string
}

func (m *RefreshRequest) marshalWire() []byte {
	return appendString(nil, 1, m.RefreshToken)
}

func (m *RefreshRequest) unmarshalWire(b []byte) error {
	*m = RefreshRequest{}
	return fieldSet{strings: map[protowire.Number]*string{1: &m.RefreshToken}}.decode(b)
}

type RefreshResponse struct {
	AccessToken  string
	RefreshToken string
}

func (m *RefreshResponse) marshalWire() []byte {
	return appendPair(m.AccessToken, m.RefreshToken)
}

func (m *RefreshResponse) unmarshalWire(b []byte) error {
	*m = RefreshResponse{}
	return decodePair(b, &m.AccessToken, &m.RefreshToken)
}

type LogoutRequest struct {
	RefreshToken string
}

func (m *LogoutRequest) marshalWire() []byte {
	return appendString(nil, 1, m.RefreshToken)
}

func (m *LogoutRequest) unmarshalWire(b []byte) error {
	*m = LogoutRequest{}
	return fieldSet{strings: map[protowire.Number]*string{1: &m.RefreshToken}}.decode(b)
}

type LogoutResponse struct{}

func (m *LogoutResponse) marshalWire() []byte { return nil }

func (m *LogoutResponse) unmarshalWire(b []byte) error {
	return fieldSet{}.decode(b)
}

type RedeemExchangeCodeRequest struct {
	Code string
}

func (m *RedeemExchangeCodeRequest) marshalWire() []byte {
	return appendString(nil, 1, m.Code)
}

func (m *RedeemExchangeCodeRequest) unmarshalWire(b []byte) error {
	*m = RedeemExchangeCodeRequest{}
	return fieldSet{strings: map[protowire.Number]*string{1: &m.Code}}.decode(b)
}

type RedeemExchangeCodeResponse struct {
	AccessToken  string
	RefreshToken string
}

func (m *RedeemExchangeCodeResponse) marshalWire() []byte {
	return appendPair(m.AccessToken, m.RefreshToken)
}

func (m *RedeemExchangeCodeResponse) unmarshalWire(b []byte) error {
	*m = RedeemExchangeCodeResponse{}
	return decodePair(b, &m.AccessToken, &m.RefreshToken)
}

// appendPair and decodePair handle the access_token = 1, refresh_token = 2
// layout shared by the token-returning responses.
func appendPair(access, refresh string) []byte {
	b := appendString(nil, 1, access)
	return appendString(b, 2, refresh)
}

func decodePair(b []byte, access, refresh *string) error {
	return fieldSet{strings: map[protowire.Number]*string{1: access, 2: refresh}}.decode(b)
}
