// Package response maps domain results and errors onto a uniform JSON shape.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sw3-barbershop/service-reservation/internal/domain/reservation"
)

// Success writes a 200 with the payload.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created writes a 201 with the payload.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// BadRequest writes a 400 with the message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// Paginated writes a 200 with items and paging metadata.
func Paginated(c *gin.Context, items any, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"data":  items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Error maps a booking-path error onto its HTTP status. All booking-path
// errors are typed and user-presentable; anything unrecognized is a 500.
func Error(c *gin.Context, err error) {
	var (
		validationErr *reservation.ValidationError
		stateErr      *reservation.InvalidStateTransitionError
		cancelErr     *reservation.CancellationNotAllowedError
		notFoundErr   *reservation.NotFoundOrNotOwnedError
		deletionErr   *reservation.InvalidDeletionError
		conflictErr   *reservation.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": validationErr.Message,
			"rule":  validationErr.Rule,
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error()})
	case errors.As(err, &cancelErr):
		c.JSON(http.StatusConflict, gin.H{"error": cancelErr.Error()})
	case errors.As(err, &deletionErr):
		c.JSON(http.StatusConflict, gin.H{"error": deletionErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
