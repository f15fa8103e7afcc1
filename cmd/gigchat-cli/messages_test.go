package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ageniuscoder/gigchat/internal/client"
)

func TestNotFoundRewordsMissingMessage(t *testing.T) {
	err := fmt.Errorf("delete m9: %w", &client.APIError{Status: 404, Message: "not found"})
	require.EqualError(t, notFound("m9", err), "message m9 does not exist or was already deleted")

	other := errors.New("offline")
	require.Same(t, other, notFound("m9", other))
}
