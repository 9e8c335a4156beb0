package dto

type FullAddressRequest struct {
	ProvinceCode string `json:"provinceCode"`
	DistrictCode string `json:"districtCode"`
	WardCode     string `json:"wardCode"`
}

type DivisionResponse struct {
	Name         string `json:"name"`
	Code         int    `json:"code"`
	DivisionType string `json:"divisionType"`
	Codename     string `json:"codename"`
}
