package agency

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// maxBodySize of the posted envelopes.
const maxBodySize = 10 << 20

type registerReq struct {
	PwDID    string `json:"pw_did"`
	PwVerKey string `json:"pw_verkey"`
}

type statusReq struct {
	Status MessageStatus `json:"status"`
}

// Handler returns the HTTP API of the agency:
//
//	POST   /didcomm                           DIDComm transport
//	GET    /info                              agency verkey and endpoint
//	POST   /agents                            register
//	DELETE /agents/{verkey}                   unregister
//	GET    /agents/{verkey}/messages?status=  mailbox
//	GET    /agents/{verkey}/messages/{uid}    one message
//	PUT    /agents/{verkey}/messages/{uid}    status update
func (a *Agency) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(TransportPath, a.transport).Methods(http.MethodPost)
	r.HandleFunc("/info", a.info).Methods(http.MethodGet)
	r.HandleFunc("/agents", a.register).Methods(http.MethodPost)
	r.HandleFunc("/agents/{verkey}", a.unregister).Methods(http.MethodDelete)
	r.HandleFunc("/agents/{verkey}/messages", a.messagesHandler).Methods(http.MethodGet)
	r.HandleFunc("/agents/{verkey}/messages/{uid}", a.messageHandler).Methods(http.MethodGet)
	r.HandleFunc("/agents/{verkey}/messages/{uid}", a.updateStatus).Methods(http.MethodPut)
	return r
}

func (a *Agency) transport(w http.ResponseWriter, r *http.Request) {
	defer err2.Catch(func(err error) error {
		glog.Warningln("transport:", err)
		errorResponse(w, err)
		return nil
	})

	if glog.V(3) {
		glog.Infoln("===== Incoming Aries TRANSPORT", r.RemoteAddr, r.Header.Get("Content-Type"))
	}
	data := try.To1(io.ReadAll(io.LimitReader(r.Body, maxBodySize)))
	try.To(a.Receive(data))
	w.WriteHeader(http.StatusAccepted)
}

func (a *Agency) info(w http.ResponseWriter, _ *http.Request) {
	defer err2.Catch(func(err error) error {
		errorResponse(w, err)
		return nil
	})
	writeJSON(w, try.To1(a.Info()))
}

func (a *Agency) register(w http.ResponseWriter, r *http.Request) {
	defer err2.Catch(func(err error) error {
		glog.Warningln("register:", err)
		errorResponse(w, err)
		return nil
	})

	var req registerReq
	try.To(json.NewDecoder(r.Body).Decode(&req))
	writeJSON(w, try.To1(a.Register(req.PwDID, req.PwVerKey)))
}

func (a *Agency) unregister(w http.ResponseWriter, r *http.Request) {
	defer err2.Catch(func(err error) error {
		errorResponse(w, err)
		return nil
	})
	try.To(a.Unregister(mux.Vars(r)["verkey"]))
	w.WriteHeader(http.StatusNoContent)
}

func (a *Agency) messagesHandler(w http.ResponseWriter, r *http.Request) {
	defer err2.Catch(func(err error) error {
		errorResponse(w, err)
		return nil
	})
	status := MessageStatus(r.URL.Query().Get("status"))
	writeJSON(w, try.To1(a.Messages(mux.Vars(r)["verkey"], status)))
}

func (a *Agency) messageHandler(w http.ResponseWriter, r *http.Request) {
	defer err2.Catch(func(err error) error {
		errorResponse(w, err)
		return nil
	})
	vars := mux.Vars(r)
	writeJSON(w, try.To1(a.Message(vars["verkey"], vars["uid"])))
}

func (a *Agency) updateStatus(w http.ResponseWriter, r *http.Request) {
	defer err2.Catch(func(err error) error {
		errorResponse(w, err)
		return nil
	})
	vars := mux.Vars(r)
	var req statusReq
	try.To(json.NewDecoder(r.Body).Decode(&req))
	try.To(a.UpdateStatus(vars["verkey"], vars["uid"], req.Status))
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Warningln("write response:", err)
	}
}

func errorResponse(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotRegistered), errors.Is(err, ErrInvalidAgencyResponse):
		code = http.StatusNotFound
	case errors.Is(err, ErrUnknownRecipient):
		code = http.StatusBadRequest
	}
	glog.V(2).Infoln("returning", code)
	http.Error(w, err.Error(), code)
}
