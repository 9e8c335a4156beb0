package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hango1705/bongland-backend/internal/api/dto"
	"github.com/hango1705/bongland-backend/internal/api/response"
	"github.com/hango1705/bongland-backend/internal/infra/address"
	"github.com/hango1705/bongland-backend/internal/service"
)

type AddressHandler struct {
	addressService service.IAddressService
}

func NewAddressHandler(addressService service.IAddressService) *AddressHandler {
	if addressService == nil {
		panic("addressService cannot be nil")
	}
	return &AddressHandler{addressService: addressService}
}

func (h *AddressHandler) GetProvinces(w http.ResponseWriter, r *http.Request) {
	provinces, err := h.addressService.GetProvinces(r.Context())
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toDivisionResponses(provinces), "SUCCESS")
}

func (h *AddressHandler) GetDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := h.addressService.GetDistricts(r.Context(), chi.URLParam(r, "provinceCode"))
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toDivisionResponses(districts), "SUCCESS")
}

func (h *AddressHandler) GetWards(w http.ResponseWriter, r *http.Request) {
	wards, err := h.addressService.GetWards(r.Context(), chi.URLParam(r, "districtCode"))
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, toDivisionResponses(wards), "SUCCESS")
}

func (h *AddressHandler) GetFullAddress(w http.ResponseWriter, r *http.Request) {
	var req dto.FullAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	full, err := h.addressService.GetFullAddress(r.Context(), service.AddressCodes{
		ProvinceCode: req.ProvinceCode,
		DistrictCode: req.DistrictCode,
		WardCode:     req.WardCode,
	})
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, full, "SUCCESS")
}

func toDivisionResponses(divisions []address.Division) []dto.DivisionResponse {
	res := make([]dto.DivisionResponse, 0, len(divisions))
	for _, d := range divisions {
		res = append(res, dto.DivisionResponse{
			Name:         d.Name,
			Code:         d.Code,
			DivisionType: d.DivisionType,
			Codename:     d.Codename,
		})
	}
	return res
}
