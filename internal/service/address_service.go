package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hango1705/bongland-backend/internal/infra/address"
	"golang.org/x/sync/errgroup"
)

type IAddressService interface {
	GetProvinces(ctx context.Context) ([]address.Division, error)
	GetDistricts(ctx context.Context, provinceCode string) ([]address.Division, error)
	GetWards(ctx context.Context, districtCode string) ([]address.Division, error)
	GetFullAddress(ctx context.Context, codes AddressCodes) (*FullAddress, error)
}

type AddressCodes struct {
	ProvinceCode string
	DistrictCode string
	WardCode     string
}

type FullAddress struct {
	Province     string `json:"province"`
	District     string `json:"district"`
	Ward         string `json:"ward"`
	ProvinceCode string `json:"provinceCode"`
	DistrictCode string `json:"districtCode"`
	WardCode     string `json:"wardCode"`
}

type AddressService struct {
	client address.IAddressClient
}

func NewAddressService(client address.IAddressClient) *AddressService {
	if client == nil {
		panic("NewAddressService client is nil")
	}
	return &AddressService{client: client}
}

func (s *AddressService) GetProvinces(ctx context.Context) ([]address.Division, error) {
	provinces, err := s.client.GetProvinces(ctx)
	if err != nil {
		return nil, translateAddressErr(err)
	}
	return provinces, nil
}

func (s *AddressService) GetDistricts(ctx context.Context, provinceCode string) ([]address.Division, error) {
	if provinceCode == "" {
		return nil, newValidationError("Province code is required")
	}
	districts, err := s.client.GetDistricts(ctx, provinceCode)
	if err != nil {
		return nil, translateAddressErr(err)
	}
	return districts, nil
}

func (s *AddressService) GetWards(ctx context.Context, districtCode string) ([]address.Division, error) {
	if districtCode == "" {
		return nil, newValidationError("District code is required")
	}
	wards, err := s.client.GetWards(ctx, districtCode)
	if err != nil {
		return nil, translateAddressErr(err)
	}
	return wards, nil
}

// GetFullAddress 三個查詢並行，任一失敗即取消其他
func (s *AddressService) GetFullAddress(ctx context.Context, codes AddressCodes) (*FullAddress, error) {
	if codes.ProvinceCode == "" || codes.DistrictCode == "" || codes.WardCode == "" {
		return nil, newValidationError("All address codes are required")
	}

	var province, district, ward *address.Division
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		province, err = s.client.GetProvince(gCtx, codes.ProvinceCode)
		return err
	})
	g.Go(func() error {
		var err error
		district, err = s.client.GetDistrict(gCtx, codes.DistrictCode)
		return err
	})
	g.Go(func() error {
		var err error
		ward, err = s.client.GetWard(gCtx, codes.WardCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateAddressErr(err)
	}

	return &FullAddress{
		Province:     province.Name,
		District:     district.Name,
		Ward:         ward.Name,
		ProvinceCode: codes.ProvinceCode,
		DistrictCode: codes.DistrictCode,
		WardCode:     codes.WardCode,
	}, nil
}

func translateAddressErr(err error) error {
	if errors.Is(err, address.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrDownstream, err)
}

var _ IAddressService = (*AddressService)(nil)
