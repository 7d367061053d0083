// Package service implements the application's business logic on top of the
// repositories.
package service

import (
	"context"
	"slices"

	"showcase/internal/models"
)

// AdminCheck reports whether userID holds the admin role.
type AdminCheck func(ctx context.Context, userID uint) (bool, error)

// authorize allows the owner, or an admin when isAdmin is set.
func authorize(ctx context.Context, isAdmin AdminCheck, actorID, ownerID uint, message string) error {
	if actorID != 0 && actorID == ownerID {
		return nil
	}
	if isAdmin != nil && actorID != 0 {
		admin, err := isAdmin(ctx, actorID)
		if err != nil {
			return err
		}
		if admin {
			return nil
		}
	}
	return models.NewForbiddenError(message)
}

// pageOf converts a 1-based page request into repository offset/limit.
func pageOf(req models.PageRequest) (models.PageRequest, int, int) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 10
	}
	return req, req.Offset(), req.Limit
}

// removedURLs lists the non-empty URLs of before that are absent from after.
func removedURLs(before, after []string) []string {
	var out []string
	for _, u := range before {
		if u != "" && !slices.Contains(after, u) && !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	return out
}
