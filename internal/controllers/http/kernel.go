package httpctrl

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/rcmodel"
)

type parametersDTO struct {
	ThetaMPrev float64 `json:"theta_m_prev"`
	ThetaE     float64 `json:"theta_e"`
	Cm         float64 `json:"c_m"`
	HTrEm      float64 `json:"h_tr_em"`
	HTrW       float64 `json:"h_tr_w"`
	HVeAdj     float64 `json:"h_ve_adj"`
	HTrMs      float64 `json:"h_tr_ms"`
	HTrIs      float64 `json:"h_tr_is"`
	PhiM       float64 `json:"phi_m"`
	PhiSt      float64 `json:"phi_st"`
	PhiIa      float64 `json:"phi_ia"`
}

func (p parametersDTO) toModel() rcmodel.Parameters {
	return rcmodel.Parameters{
		ThetaMPrev: p.ThetaMPrev,
		ThetaE:     p.ThetaE,
		Cm:         p.Cm,
		HTrEm:      p.HTrEm,
		HTrW:       p.HTrW,
		HVeAdj:     p.HVeAdj,
		HTrMs:      p.HTrMs,
		HTrIs:      p.HTrIs,
		PhiM:       p.PhiM,
		PhiSt:      p.PhiSt,
		PhiIa:      p.PhiIa,
	}
}

type resultDTO struct {
	ThetaMT  float64 `json:"theta_m_t"`
	ThetaAir float64 `json:"theta_air"`
	ThetaOp  float64 `json:"theta_op"`
}

func toResultDTO(r rcmodel.Result) resultDTO {
	return resultDTO{ThetaMT: r.ThetaMT, ThetaAir: r.ThetaAir, ThetaOp: r.ThetaOp}
}

type solveRequest struct {
	Parameters *parametersDTO `json:"parameters"`
	PhiHCNd    float64        `json:"phi_hc_nd"`
}

type resolveRequest struct {
	Parameters *parametersDTO `json:"parameters"`
	Setpoints  struct {
		Heating *float64 `json:"heating"`
		Cooling *float64 `json:"cooling"`
	} `json:"setpoints"`
	Capacity struct {
		HeatingMax *float64 `json:"heating_max"`
		CoolingMax *float64 `json:"cooling_max"`
	} `json:"capacity"`
}

type systemStateDTO struct {
	PhiHCNd      float64   `json:"phi_hc_nd"`
	Demand       string    `json:"demand"`
	Unrestricted float64   `json:"unrestricted"`
	Limited      bool      `json:"limited"`
	Evaluations  int       `json:"evaluations"`
	Result       resultDTO `json:"result"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Parameters == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'parameters'")
		return
	}
	res, err := rcmodel.Solve(req.Parameters.toModel(), req.PhiHCNd)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResultDTO(res))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Parameters == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'parameters'")
		return
	}
	st, err := s.res.Resolve(
		req.Parameters.toModel(),
		demand.Setpoints{Heating: req.Setpoints.Heating, Cooling: req.Setpoints.Cooling},
		demand.Capacity{HeatingMax: req.Capacity.HeatingMax, CoolingMax: req.Capacity.CoolingMax},
	)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, systemStateDTO{
		PhiHCNd:      st.PhiHCNd,
		Demand:       st.Demand.String(),
		Unrestricted: st.Unrestricted,
		Limited:      st.Limited,
		Evaluations:  st.Evaluations,
		Result:       toResultDTO(st.Result),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// statusFor maps kernel errors: bad input is 400, a network the probe cannot
// move is 422.
func statusFor(err error) int {
	if errors.Is(err, demand.ErrDegenerateNetwork) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}
