package pets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"petstore/internal/middleware"
	"petstore/internal/platform/logger"
	"petstore/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

const (
	msgInvalidRequest = "Invalid request data"
	msgPetNotFound    = "Pet not found"
	msgInternal       = "Internal server error"
	msgDeleted        = "Pet deleted successfully"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Get("/", listPetsHandler(svc, log))
		pr.Post("/", createPetHandler(svc, log))

		// ids no numéricos no matchean y caen en el 404 genérico del router
		pr.Get("/{petID:[0-9]+}", getPetHandler(svc, log))
		pr.Put("/{petID:[0-9]+}", updatePetHandler(svc, log))
		pr.Delete("/{petID:[0-9]+}", deletePetHandler(svc, log))
	})
}

type createPetRequest struct {
	Name    string   `json:"name"`
	Species string   `json:"species"`
	Breed   *string  `json:"breed"`
	Age     *float64 `json:"age"`
	Price   *float64 `json:"price"`
	Status  *Status  `json:"status"`
}

type updatePetRequest struct {
	// Punteros: nil = no tocar. breed/age aceptan null para limpiar.
	Name    *string           `json:"name"`
	Species *string           `json:"species"`
	Breed   Optional[string]  `json:"breed" swaggertype:"string"`
	Age     Optional[float64] `json:"age" swaggertype:"number"`
	Price   *float64          `json:"price"`
	Status  *Status           `json:"status"`
}

type petResponse struct {
	ID      int64    `json:"id" example:"1"`
	Name    string   `json:"name" example:"Fluffy"`
	Species string   `json:"species" example:"Cat"`
	Breed   *string  `json:"breed" example:"Persian"`
	Age     *float64 `json:"age" example:"2.5"`
	Price   Decimal  `json:"price" swaggertype:"number" example:"100.0"`
	Status  Status   `json:"status" example:"available"`
}

// listPetsHandler godoc
// @Summary     List pets
// @Tags        pets
// @Produce     json
// @Param       status query string false "Filter by status" Enums(available, pending, sold)
// @Success     200 {array}  petResponse
// @Failure     500 {object} respond.ErrorBody
// @Router      /pets [get]
func listPetsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), r.URL.Query().Get("status"))
		if err != nil {
			internalError(w, r, log, "list pets", err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary     Get a pet by id
// @Tags        pets
// @Produce     json
// @Param       petID path int true "Pet id"
// @Success     200 {object} petResponse
// @Failure     404 {object} respond.ErrorBody
// @Router      /pets/{petID} [get]
func getPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := petIDParam(w, r)
		if !ok {
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respond.Error(w, http.StatusNotFound, msgPetNotFound)
				return
			}
			internalError(w, r, log, "get pet", err)
			return
		}

		respond.JSON(w, http.StatusOK, toPetResponse(p))
	}
}

// createPetHandler godoc
// @Summary     Create a pet
// @Tags        pets
// @Accept      json
// @Produce     json
// @Param       pet body createPetRequest true "Pet"
// @Success     201 {object} petResponse
// @Failure     400 {object} respond.ErrorBody
// @Router      /pets [post]
func createPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := decodeObject(w, r)
		if !ok {
			return
		}

		for _, field := range []string{"name", "species"} {
			if _, exists := raw[field]; !exists {
				respond.Error(w, http.StatusBadRequest, "Missing required field: "+field)
				return
			}
		}

		var req createPetRequest
		if err := remarshal(raw, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, msgInvalidRequest)
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			Name:    req.Name,
			Species: req.Species,
			Breed:   req.Breed,
			Age:     req.Age,
			Price:   req.Price,
			Status:  req.Status,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				respond.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			internalError(w, r, log, "create pet", err)
			return
		}

		respond.JSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary     Update a pet
// @Description Overwrites only the supplied fields. Unknown fields are ignored.
// @Tags        pets
// @Accept      json
// @Produce     json
// @Param       petID path int true "Pet id"
// @Param       pet body updatePetRequest true "Fields to update"
// @Success     200 {object} petResponse
// @Failure     400 {object} respond.ErrorBody
// @Failure     404 {object} respond.ErrorBody
// @Router      /pets/{petID} [put]
func updatePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := petIDParam(w, r)
		if !ok {
			return
		}

		raw, ok := decodeObject(w, r)
		if !ok {
			return
		}

		var req updatePetRequest
		if err := remarshal(raw, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, msgInvalidRequest)
			return
		}

		updated, err := svc.Update(r.Context(), id, Patch{
			Name:    req.Name,
			Species: req.Species,
			Breed:   req.Breed,
			Age:     req.Age,
			Price:   req.Price,
			Status:  req.Status,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				respond.Error(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, ErrNotFound):
				respond.Error(w, http.StatusNotFound, msgPetNotFound)
			default:
				internalError(w, r, log, "update pet", err)
			}
			return
		}

		respond.JSON(w, http.StatusOK, toPetResponse(updated))
	}
}

// deletePetHandler godoc
// @Summary     Delete a pet
// @Tags        pets
// @Produce     json
// @Param       petID path int true "Pet id"
// @Success     200 {object} respond.MessageBody
// @Failure     404 {object} respond.ErrorBody
// @Router      /pets/{petID} [delete]
func deletePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := petIDParam(w, r)
		if !ok {
			return
		}

		deleted, err := svc.Delete(r.Context(), id)
		if err != nil {
			internalError(w, r, log, "delete pet", err)
			return
		}
		if !deleted {
			respond.Error(w, http.StatusNotFound, msgPetNotFound)
			return
		}

		respond.Message(w, http.StatusOK, msgDeleted)
	}
}

func petIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "petID"), 10, 64)
	if err != nil {
		// fuera de rango para int64
		respond.Error(w, http.StatusNotFound, msgPetNotFound)
		return 0, false
	}
	return id, true
}

// decodeObject exige un único objeto JSON no vacío; body ausente, null,
// {} o un tipo que no sea objeto responden 400.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, bool) {
	var raw map[string]json.RawMessage
	if r.Body == nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidRequest)
		return nil, false
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&raw); err != nil || len(raw) == 0 {
		respond.Error(w, http.StatusBadRequest, msgInvalidRequest)
		return nil, false
	}
	// nada más después del objeto
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		respond.Error(w, http.StatusBadRequest, msgInvalidRequest)
		return nil, false
	}
	return raw, true
}

// remarshal reutiliza los tags del struct sobre el map ya decodificado.
func remarshal(raw map[string]json.RawMessage, dst any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func internalError(w http.ResponseWriter, r *http.Request, log logger.Logger, op string, err error) {
	log.Error(op+" failed", map[string]any{
		"request_id": middleware.GetRequestID(r.Context()),
		"error":      err.Error(),
	})
	respond.Error(w, http.StatusInternalServerError, msgInternal)
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:      p.ID,
		Name:    p.Name,
		Species: p.Species,
		Breed:   p.Breed,
		Age:     p.Age,
		Price:   Decimal(p.Price),
		Status:  p.Status,
	}
}

// Decimal se serializa siempre con punto decimal: 100 -> 100.0.
type Decimal float64

func (d Decimal) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("unsupported price value %v", f)
	}
	b := strconv.AppendFloat(nil, f, 'f', -1, 64)
	if !bytes.ContainsAny(b, ".") {
		b = append(b, '.', '0')
	}
	return b, nil
}
