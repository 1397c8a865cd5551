package payment

import "encoding/json"

// Wire shape of gateway events, shared by both adapters.
type event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			ClientReferenceID string            `json:"client_reference_id,omitempty"`
			Metadata          map[string]string `json:"metadata,omitempty"`
			Shipping          *eventShipping    `json:"shipping,omitempty"`
		} `json:"object"`
	} `json:"data"`
}

type eventShipping struct {
	Name    string `json:"name,omitempty"`
	Address struct {
		Line1      string `json:"line1,omitempty"`
		Line2      string `json:"line2,omitempty"`
		City       string `json:"city,omitempty"`
		State      string `json:"state,omitempty"`
		PostalCode string `json:"postal_code,omitempty"`
		Country    string `json:"country,omitempty"`
	} `json:"address"`
}

// parseEvent decodes a verified payload into a Notification. The
// client_reference_id, when present, doubles as the order-id metadata so
// either correlation path resolves the order.
func parseEvent(payload []byte) (Notification, error) {
	var ev event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Notification{}, &GatewayError{Op: "parse webhook event", Err: err}
	}

	n := Notification{
		EventID:   ev.ID,
		Type:      ev.Type,
		Reference: ev.Data.Object.ID,
		Metadata:  ev.Data.Object.Metadata,
	}
	if ref := ev.Data.Object.ClientReferenceID; ref != "" {
		if n.Metadata == nil {
			n.Metadata = map[string]string{}
		}
		if n.Metadata[MetaOrderID] == "" {
			n.Metadata[MetaOrderID] = ref
		}
	}
	if s := ev.Data.Object.Shipping; s != nil {
		n.Shipping = &ShippingInfo{
			Name:       s.Name,
			Line1:      s.Address.Line1,
			Line2:      s.Address.Line2,
			City:       s.Address.City,
			State:      s.Address.State,
			PostalCode: s.Address.PostalCode,
			Country:    s.Address.Country,
		}
	}
	return n, nil
}
