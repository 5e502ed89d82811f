package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"halalinvest/src/model"
)

type instrumentLister interface {
	Lookup(symbol string) (model.Instrument, bool)
	List() []model.Instrument
	ByCategory(category model.Category) []model.Instrument
}

// ListInstrumentsHandler returns the catalog, optionally narrowed with
// ?category=halal-stocks|islamic-bonds|sukuk|commodities.
func ListInstrumentsHandler(instruments instrumentLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := model.Category(strings.ToLower(r.URL.Query().Get("category")))
		if category == "" || category == "all" {
			writeJSON(w, http.StatusOK, instruments.List())
			return
		}
		if !category.Valid() {
			writeError(w, http.StatusBadRequest, "invalid category", "")
			return
		}
		matched := instruments.ByCategory(category)
		if matched == nil {
			matched = []model.Instrument{}
		}
		writeJSON(w, http.StatusOK, matched)
	}
}

func GetInstrumentHandler(instruments instrumentLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
		inst, ok := instruments.Lookup(symbol)
		if !ok {
			writeError(w, http.StatusNotFound, "Instrument not found", "unknown_instrument")
			return
		}
		writeJSON(w, http.StatusOK, inst)
	}
}
