package server

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	apperr "schoolcal/internal/errors"
	"schoolcal/internal/ics"
	"schoolcal/internal/models"
	"schoolcal/internal/recurrence"
)

const (
	msgCreated   = "일정이 추가되었습니다."
	msgBatchFmt  = "%d개의 일정이 추가되었습니다."
	msgUpdated   = "일정이 수정되었습니다."
	msgDeleted   = "일정이 삭제되었습니다."
	msgForbidden = "이 일정을 변경할 권한이 없습니다."
	msgBadBody   = "요청 형식이 올바르지 않습니다."
)

func (s *Server) handleListEvents(c *fiber.Ctx) error {
	list, err := s.events.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleCreateEvent(c *fiber.Ctx) error {
	var req EventRequest
	if err := s.parseEvent(c, &req); err != nil {
		return err
	}

	id, err := s.events.Create(c.UserContext(), req.input(), identityFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": msgCreated, "id": id})
}

func (s *Server) handleCreateBatch(c *fiber.Ctx) error {
	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.NewValidation(msgBadBody)
	}
	inputs := make([]models.EventInput, len(req.Events))
	for i := range req.Events {
		req.Events[i].normalize()
		inputs[i] = req.Events[i].input()
	}
	if err := s.validate.Struct(req); err != nil {
		return validationError(err)
	}

	n, err := s.events.CreateBatch(c.UserContext(), inputs, identityFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf(msgBatchFmt, n), "count": n})
}

// handleCreateRepeat expands one event over a date range and stores the copies as a batch.
func (s *Server) handleCreateRepeat(c *fiber.Ctx) error {
	var req RepeatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.NewValidation(msgBadBody)
	}
	req.Event.normalize()
	if err := s.validate.Struct(req); err != nil {
		return validationError(err)
	}

	dates, err := recurrence.ExpandDates(req.Event.Date, req.Until, req.days())
	if err != nil {
		return apperr.NewValidation(err.Error())
	}

	inputs := make([]models.EventInput, len(dates))
	for i, d := range dates {
		in := req.Event.input()
		in.Date = d
		inputs[i] = in
	}

	n, err := s.events.CreateBatch(c.UserContext(), inputs, identityFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf(msgBatchFmt, n), "count": n})
}

func (s *Server) handleUpdateEvent(c *fiber.Ctx) error {
	var req EventRequest
	if err := s.parseEvent(c, &req); err != nil {
		return err
	}
	id := c.Params("id")
	if err := s.authorize(c, id); err != nil {
		return err
	}

	if err := s.events.Update(c.UserContext(), id, req.input(), identityFrom(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": msgUpdated})
}

func (s *Server) handleDeleteEvent(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.authorize(c, id); err != nil {
		return err
	}

	if err := s.events.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": msgDeleted})
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	list, err := s.events.Events(c.UserContext())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := ics.Export(&buf, list, s.now()); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="calendar.ics"`)
	return c.Send(buf.Bytes())
}

func (s *Server) parseEvent(c *fiber.Ctx, req *EventRequest) error {
	if err := c.BodyParser(req); err != nil {
		return apperr.NewValidation(msgBadBody)
	}
	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

// authorize loads the event and checks the caller may change it. The event is
// read again by the mutation itself, so a concurrent delete surfaces as NotFound.
func (s *Server) authorize(c *fiber.Ctx, id string) error {
	ev, err := s.events.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !s.policy.CanModify(identityFrom(c), ev) {
		return apperr.NewForbidden(msgForbidden)
	}
	return nil
}
