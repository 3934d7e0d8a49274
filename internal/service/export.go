package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"ID", "Student", "Email", "Phone", "Session", "Tutor",
	"Status", "Payment", "Notes", "Registered at",
}

// Export выгружает записи расписания в xlsx.
// Возвращает содержимое файла и рекомендуемое имя.
func (s *RegistrationService) Export(ctx context.Context, scheduleID int64, filter model.RegistrationFilter) ([]byte, string, error) {
	result, err := s.ListBySchedule(ctx, scheduleID, filter)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Registrations"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, reg := range result.Registrations {
		row := i + 2
		values := []interface{}{
			reg.ID, "", "", "", reg.SessionID, "",
			string(reg.Status), string(reg.PaymentStatus), reg.Notes,
			reg.CreatedAt.Format("2006-01-02 15:04"),
		}
		if reg.User != nil {
			values[1], values[2], values[3] = reg.User.FullName, reg.User.Email, reg.User.PhoneNumber
		}
		if reg.Session != nil {
			values[4] = fmt.Sprintf("%s %s", reg.Session.StartDate.Format("2006-01-02"), reg.Session.Time)
			if reg.Session.Tutor != nil {
				values[5] = reg.Session.Tutor.Name
			}
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("write xlsx: %w", err)
	}

	name := fmt.Sprintf("registrations_%s.xlsx", result.Schedule.Slug)
	return buf.Bytes(), name, nil
}
