package server

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "github.com/Saksham1387/realtime-leaderboard/internal/errors"
)

// registerRequest is the registration intent accepted from the HTTP layer.
type registerRequest struct {
	ParticipantID string  `json:"participantId"`
	InitialScore  float64 `json:"initialScore"`
}

func (s *Server) handleRegisterParticipant(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	ctx := c.Request().Context()
	if err := s.gateway.RegisterParticipant(ctx, req.ParticipantID, req.InitialScore); err != nil {
		return err
	}

	if err := c.JSON(201, map[string]string{"status": "registered"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetLeaderboard(c echo.Context) error {
	// Absent limit returns the full ranking.
	n := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return apperrors.ValidationError("limit must be a positive integer").
				WithContext("limit", limitStr)
		}
		if parsed > s.config.MaxLeaderboardLimit {
			return apperrors.ValidationError("limit exceeds maximum").
				WithContext("limit", parsed).
				WithContext("max_limit", s.config.MaxLeaderboardLimit)
		}
		n = parsed
	}

	snapshot, err := s.store.TopN(c.Request().Context(), n)
	if err != nil {
		return err
	}

	if err := c.JSON(200, snapshot); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetRank(c echo.Context) error {
	participantID := c.Param("id")
	if participantID == "" {
		return apperrors.ValidationError("participant id is required")
	}

	rank, err := s.store.RankOf(c.Request().Context(), participantID)
	if err != nil {
		return err
	}

	if err := c.JSON(200, map[string]any{
		"participantId": participantID,
		"rank":          rank,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
