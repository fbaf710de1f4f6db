package mailer

import (
	"encoding/json"
	"fmt"
)

// EmailEvent is the JSON document published for the downstream email worker.
type EmailEvent struct {
	Type            string `json:"type"`
	Email           string `json:"email"`
	FullName        string `json:"fullName"`
	AppointmentDate string `json:"appointmentDate,omitempty"`
	AppointmentTime string `json:"appointmentTime,omitempty"`
	VehicleInfo     string `json:"vehicleInfo,omitempty"`
	Subject         string `json:"subject"`
}

func reminderEvent(r AppointmentReminder) EmailEvent {
	return EmailEvent{
		Type:            EventAppointmentReminder,
		Email:           r.Email,
		FullName:        r.FullName,
		AppointmentDate: r.Date,
		AppointmentTime: r.Time,
		VehicleInfo:     r.Vehicle,
		Subject:         r.SubjectLine(),
	}
}

func (e EmailEvent) marshal() (string, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return string(body), nil
}
