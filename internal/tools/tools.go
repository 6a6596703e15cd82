// Package tools exposes the business services as eino tools for the
// chat-model gateway.
package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"voice_agent/internal/logger"
	"voice_agent/internal/services"
)

const (
	LookupCustomer    = "lookup_customer"
	SaveBooking       = "save_booking"
	CheckAvailability = "check_availability"
	GetBusinessInfo   = "get_business_info"
)

// New builds the business tools over the booking and availability services.
func New(booking *services.BookingService, availability *services.AvailabilityService) ([]tool.InvokableTool, error) {
	lookup, err := utils.InferTool(LookupCustomer,
		"Look up a customer's information by name to find their booking history and preferences.",
		func(ctx context.Context, req services.LookupRequest) (services.LookupResult, error) {
			logger.Debug().Str("tool", LookupCustomer).Str("business_id", req.BusinessID).Msg("tool invoked")
			return booking.LookupCustomer(ctx, req)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s tool: %w", LookupCustomer, err)
	}

	save, err := utils.InferTool(SaveBooking,
		"Save or update a customer's booking when the customer confirms a reservation.",
		func(ctx context.Context, req services.BookingRequest) (services.BookingResult, error) {
			logger.Debug().Str("tool", SaveBooking).Str("business_id", req.BusinessID).Msg("tool invoked")
			return booking.SaveBooking(ctx, req)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s tool: %w", SaveBooking, err)
	}

	check, err := utils.InferTool(CheckAvailability,
		"Check availability for a specific date and time.",
		func(ctx context.Context, req services.AvailabilityRequest) (services.Availability, error) {
			logger.Debug().Str("tool", CheckAvailability).Str("business_id", req.BusinessID).Msg("tool invoked")
			return availability.Check(ctx, req), nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s tool: %w", CheckAvailability, err)
	}

	info, err := utils.InferTool(GetBusinessInfo,
		"Get the business name, greeting and the services it offers.",
		func(ctx context.Context, req services.BusinessInfoRequest) (services.BusinessInfo, error) {
			return booking.BusinessInfo(ctx, req), nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s tool: %w", GetBusinessInfo, err)
	}

	return []tool.InvokableTool{lookup, save, check, info}, nil
}
