package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/repository"
)

type AddressInput struct {
	AddressLine1 string  `json:"address_line_1" validate:"required,min=5,max=250"`
	AddressLine2 *string `json:"address_line_2" validate:"omitempty,min=5,max=250"`
	City         string  `json:"city" validate:"required,min=2,max=50,cityname"`
	PostalCode   string  `json:"postal_code" validate:"required,pincode"`
}

type AddressPatch struct {
	AddressLine1 *string `json:"address_line_1" validate:"omitempty,min=5,max=250"`
	AddressLine2 *string `json:"address_line_2" validate:"omitempty,min=5,max=250"`
	City         *string `json:"city" validate:"omitempty,min=2,max=50,cityname"`
	PostalCode   *string `json:"postal_code" validate:"omitempty,pincode"`
}

// AddressService manages the delivery addresses of a customer.
type AddressService struct {
	store repository.Store
}

func NewAddressService(store repository.Store) *AddressService {
	return &AddressService{store: store}
}

func (s *AddressService) CreateAddress(ctx context.Context, customerID uuid.UUID, in AddressInput) (*models.Address, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	now := time.Now()
	address := &models.Address{
		CustomerID:   customerID,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		City:         in.City,
		PostalCode:   in.PostalCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Addresses().Create(ctx, address); err != nil {
		return nil, storeErr(err, "address")
	}
	return address, nil
}

func (s *AddressService) ListAddresses(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	addresses, err := s.store.Addresses().ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, storeErr(err, "addresses")
	}
	return addresses, nil
}

func (s *AddressService) owned(ctx context.Context, store repository.Store, id, customerID uuid.UUID) (*models.Address, error) {
	address, err := store.Addresses().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "address")
	}
	if address.CustomerID != customerID {
		return nil, apperr.Forbidden("address %s does not belong to you", id)
	}
	return address, nil
}

func (s *AddressService) GetAddress(ctx context.Context, id, customerID uuid.UUID) (*models.Address, error) {
	return s.owned(ctx, s.store, id, customerID)
}

func (s *AddressService) UpdateAddress(ctx context.Context, id uuid.UUID, patch AddressPatch, customerID uuid.UUID) (*models.Address, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	var address *models.Address
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if address, err = s.owned(ctx, tx, id, customerID); err != nil {
			return err
		}
		if patch.AddressLine1 != nil {
			address.AddressLine1 = *patch.AddressLine1
		}
		if patch.AddressLine2 != nil {
			address.AddressLine2 = patch.AddressLine2
		}
		if patch.City != nil {
			address.City = *patch.City
		}
		if patch.PostalCode != nil {
			address.PostalCode = *patch.PostalCode
		}
		address.UpdatedAt = time.Now()
		return storeErr(tx.Addresses().Update(ctx, address), "address")
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress removes an address no order refers to.
func (s *AddressService) DeleteAddress(ctx context.Context, id, customerID uuid.UUID) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := s.owned(ctx, tx, id, customerID); err != nil {
			return err
		}
		n, err := tx.Orders().CountByAddress(ctx, id)
		if err != nil {
			return storeErr(err, "orders")
		}
		if n > 0 {
			return apperr.Conflict("address %s is used by %d order(s)", id, n)
		}
		return storeErr(tx.Addresses().Delete(ctx, id), "address")
	})
}
