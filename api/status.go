package api

import (
	"net/http"

	"github.com/the-lightning-land/connectivityd/connectivity"
)

type connectivityResponse struct {
	Status connectivity.NetworkStatus `json:"status"`
}

func (a *Api) handleGetConnectivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.jsonResponse(w, &connectivityResponse{
			Status: a.observer.CurrentStatus(),
		}, http.StatusOK)
	}
}
