package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketcore-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
)

func callerID(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return userID, nil
}
