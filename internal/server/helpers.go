package server

import "github.com/google/uuid"

func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// ParamUUID parses a UUID path parameter. A malformed value is answered
// with 404, as no resource can have that id.
func ParamUUID(c Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, ErrNotFound("resource not found", WithErrorCode("not_found"))
	}
	return id, nil
}
