package amqp

import (
	"encoding/json"
	"time"

	"registru/internal/core"
)

// ExportRecordedMessage announces one row written to Exporturi. It carries
// the full row so consumers do not need access to the database.
type ExportRecordedMessage struct {
	ExportID      string    `json:"export_id"`
	TransactionID string    `json:"transaction_id"`
	System        string    `json:"system"`
	ExportedOn    string    `json:"exported_on"`
	Amount        string    `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewExportRecordedMessage(e core.ExportRecord) *ExportRecordedMessage {
	return &ExportRecordedMessage{
		ExportID:      e.ID,
		TransactionID: e.TransactionID,
		System:        e.System,
		ExportedOn:    e.ExportedOn.String(),
		Amount:        core.FormatAmount(e.Amount),
		Timestamp:     time.Now(),
	}
}

// Record converts the message back into an export record.
func (m *ExportRecordedMessage) Record() (core.ExportRecord, error) {
	day, err := core.ParseDate(m.ExportedOn)
	if err != nil {
		return core.ExportRecord{}, err
	}
	amount, err := core.ParseAmount(m.Amount)
	if err != nil {
		return core.ExportRecord{}, err
	}
	return core.ExportRecord{
		ID:            m.ExportID,
		TransactionID: m.TransactionID,
		System:        m.System,
		ExportedOn:    day,
		Amount:        amount,
	}, nil
}

func (m *ExportRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportRecordedMessageFromJSON(data []byte) (*ExportRecordedMessage, error) {
	var msg ExportRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
