package services

import (
	"context"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// AddressInput carries the editable fields of an address.
type AddressInput struct {
	Name       string
	Address    string
	City       string
	Country    string
	PostalCode string
	Phone      string
	IsDefault  bool
}

// AddressService handles business logic related to shipping addresses.
type AddressService struct {
	repo repositories.AddressRepository
}

// NewAddressService creates a new AddressService.
func NewAddressService(repo repositories.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

func (in AddressInput) toModel(userID string) *models.Address {
	return &models.Address{
		UserID:     userID,
		Name:       in.Name,
		Address:    in.Address,
		City:       in.City,
		Country:    in.Country,
		PostalCode: in.PostalCode,
		Phone:      in.Phone,
		IsDefault:  in.IsDefault,
	}
}

// CreateAddress stores a new address for userID.
func (s *AddressService) CreateAddress(ctx context.Context, userID string, in AddressInput) (*models.Address, error) {
	address := in.toModel(userID)
	if err := s.repo.Create(ctx, address); err != nil {
		return nil, apperr.Unexpected(err, "failed to create address")
	}
	return address, nil
}

// GetAddresses lists the addresses of userID.
func (s *AddressService) GetAddresses(ctx context.Context, userID string) ([]models.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch addresses")
	}
	return addresses, nil
}

// UpdateAddress overwrites an address of userID.
func (s *AddressService) UpdateAddress(ctx context.Context, userID, id string, in AddressInput) (*models.Address, error) {
	address := in.toModel(userID)
	address.ID = id
	if err := s.repo.Update(ctx, address); err != nil {
		return nil, repoErr(err, "Address not found!", "failed to update address")
	}
	return address, nil
}

// DeleteAddress removes an address of userID.
func (s *AddressService) DeleteAddress(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return repoErr(err, "Address not found!", "failed to delete address")
	}
	return nil
}
