package gateway

import "strings"

// Tool is a tool declaration in the engine's wire format. Platform tools
// only carry an ID; function tools point back at this service.
type Tool struct {
	Type        string         `json:"type"`
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Method      string         `json:"method,omitempty"`
	Timeout     int            `json:"timeout,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

const (
	ToolTypePlatform = "platform"
	ToolTypeFunction = "function"
)

// SearchTools are the engine's built-in web search tools.
func SearchTools() []Tool {
	return []Tool{
		{Type: ToolTypePlatform, ID: "web_search"},
		{Type: ToolTypePlatform, ID: "parallel_search"},
	}
}

// FunctionTools declares the business endpoints served under baseURL.
func FunctionTools(baseURL string) []Tool {
	baseURL = strings.TrimRight(baseURL, "/")
	return []Tool{
		functionTool(baseURL, "lookup_customer",
			"Look up a customer's information by name. Use this when a customer identifies themselves to find their booking history and preferences.",
			map[string]any{
				"customer_name": stringParam("The customer's name to look up"),
				"business_id":   stringParam("The business identifier (hotel, restaurant, gym, etc.)"),
			}, "customer_name", "business_id"),
		functionTool(baseURL, "save_booking",
			"Save or update a customer's booking or appointment. Use this when a customer confirms they want to make a reservation.",
			map[string]any{
				"customer_name": stringParam("Customer's full name"),
				"business_id":   stringParam("Business identifier"),
				"booking_details": map[string]any{
					"type":        "object",
					"description": "Booking details (date, time, party_size, room_type, etc.)",
				},
			}, "customer_name", "business_id", "booking_details"),
		functionTool(baseURL, "check_availability",
			"Check availability for a specific date and time. Use this when the customer asks about availability.",
			map[string]any{
				"business_id":  stringParam("Business identifier"),
				"date":         stringParam("Date to check"),
				"time":         stringParam("Time to check (optional)"),
				"service_type": stringParam("Type of service, room or table requested"),
			}, "business_id", "date"),
	}
}

func functionTool(baseURL, name, description string, properties map[string]any, required ...string) Tool {
	return Tool{
		Type:        ToolTypeFunction,
		Name:        name,
		Description: description,
		URL:         baseURL + "/api/tools/" + name,
		Method:      "POST",
		Timeout:     10,
		Parameters: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

func stringParam(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}
