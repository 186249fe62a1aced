package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"OFTester/internal/control"
	"OFTester/internal/model"
	"OFTester/internal/openflow"
	"OFTester/internal/topology"
	"OFTester/pkg/packet"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// APIHandler serves the controller REST contract on top of an Agent.
type APIHandler struct {
	agent *Agent
}

// NewRouter builds the router for every management endpoint.
func NewRouter(a *Agent) *mux.Router {
	h := &APIHandler{agent: a}
	r := mux.NewRouter()

	r.HandleFunc(control.PathFlowAdd, h.addFlowHandler).Methods(http.MethodPost)
	r.HandleFunc(control.PathFlowClear+"{dpid}", h.clearFlowsHandler).Methods(http.MethodDelete)
	r.HandleFunc(control.PathGroupAdd, h.addGroupHandler).Methods(http.MethodPost)
	r.HandleFunc(control.PathGroupDelete, h.deleteGroupHandler).Methods(http.MethodPost)
	r.HandleFunc(control.PathPortModify, h.modifyPortHandler).Methods(http.MethodPost)
	r.HandleFunc(control.PathPacketOut+"{dpid}", h.packetOutHandler).Methods(http.MethodPost)

	r.HandleFunc("/stats/flow/{dpid}", h.listFlowsHandler).Methods(http.MethodGet)
	r.HandleFunc("/stats/groupdesc/{dpid}", h.listGroupsHandler).Methods(http.MethodGet)
	r.HandleFunc("/tpn/stats/{dpid}", h.statsHandler).Methods(http.MethodGet)
	return r
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func pathDPID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	dpid, err := topology.ParseDPID(mux.Vars(r)["dpid"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return dpid, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}

func (h *APIHandler) addFlowHandler(w http.ResponseWriter, r *http.Request) {
	var flow openflow.Flow
	if !decode(w, r, &flow) {
		return
	}
	if err := h.agent.AddFlow(flow); err != nil {
		status := http.StatusInternalServerError
		if model.IsValidation(err) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *APIHandler) clearFlowsHandler(w http.ResponseWriter, r *http.Request) {
	dpid, ok := pathDPID(w, r)
	if !ok {
		return
	}
	h.agent.ClearFlows(dpid)
	w.WriteHeader(http.StatusOK)
}

func (h *APIHandler) addGroupHandler(w http.ResponseWriter, r *http.Request) {
	var group openflow.Group
	if !decode(w, r, &group) {
		return
	}
	if err := h.agent.AddGroup(group); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrGroupExists) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *APIHandler) deleteGroupHandler(w http.ResponseWriter, r *http.Request) {
	var ref openflow.GroupRef
	if !decode(w, r, &ref) {
		return
	}
	h.agent.DeleteGroup(ref)
	w.WriteHeader(http.StatusOK)
}

func (h *APIHandler) modifyPortHandler(w http.ResponseWriter, r *http.Request) {
	var mod control.PortMod
	if !decode(w, r, &mod) {
		return
	}
	h.agent.ModifyPort(mod)
	w.WriteHeader(http.StatusOK)
}

func (h *APIHandler) packetOutHandler(w http.ResponseWriter, r *http.Request) {
	dpid, ok := pathDPID(w, r)
	if !ok {
		return
	}
	var params packet.Params
	if !decode(w, r, &params) {
		return
	}
	n, err := h.agent.PacketOut(dpid, params)
	if err != nil {
		log.Warnf("Rejected packet-out for switch %d: %v", dpid, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]int{"frame_len": n})
}

func (h *APIHandler) listFlowsHandler(w http.ResponseWriter, r *http.Request) {
	dpid, ok := pathDPID(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string][]openflow.Flow{strconv.FormatUint(dpid, 10): h.agent.Flows(dpid)})
}

func (h *APIHandler) listGroupsHandler(w http.ResponseWriter, r *http.Request) {
	dpid, ok := pathDPID(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string][]openflow.Group{strconv.FormatUint(dpid, 10): h.agent.Groups(dpid)})
}

func (h *APIHandler) statsHandler(w http.ResponseWriter, r *http.Request) {
	dpid, ok := pathDPID(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.agent.Stats(dpid))
}
