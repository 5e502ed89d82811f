package handler

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"halalinvest/src/model"
)

type exceptionLister interface {
	Recent(ctx context.Context, limit int) ([]model.Exception, error)
}

// ExceptionsHandler lists the latest recorded exceptions for admins.
func ExceptionsHandler(exceptions exceptionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, limit, ok := pageParams(r, 50, 500)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid page or limit", "")
			return
		}
		list, err := exceptions.Recent(r.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("failed to list exceptions")
			writeError(w, http.StatusInternalServerError, "Internal server error", "")
			return
		}
		if list == nil {
			list = []model.Exception{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
