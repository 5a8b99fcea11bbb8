package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/metervision/meter-reading-service/internal/service"
)

type uploadRequest struct {
	Image           string `json:"image"`
	CustomerCode    string `json:"customer_code"`
	MeasureDatetime string `json:"measure_datetime"`
	MeasureType     string `json:"measure_type"`
}

type uploadResponse struct {
	ImageURL     string `json:"image_url"`
	MeasureValue int64  `json:"measure_value"`
	MeasureUUID  string `json:"measure_uuid"`
}

// UploadMeasurement handles POST /upload.
func (s *Server) UploadMeasurement(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidData(c, "request body is invalid")
		return
	}

	result, err := s.capture.Capture(c.Request.Context(), service.CaptureRequest{
		Image:           req.Image,
		CustomerCode:    req.CustomerCode,
		MeasureDatetime: req.MeasureDatetime,
		MeasureType:     req.MeasureType,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		ImageURL:     result.ImageURL,
		MeasureValue: result.MeasureValue,
		MeasureUUID:  result.MeasureUUID,
	})
}

type confirmRequest struct {
	MeasureUUID    string `json:"measure_uuid"`
	ConfirmedValue *int64 `json:"confirmed_value"`
}

// ConfirmMeasurement handles PATCH /confirm.
func (s *Server) ConfirmMeasurement(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidData(c, "confirmed value must be a number")
		return
	}
	if req.ConfirmedValue == nil {
		abortInvalidData(c, "confirmed value must be a number")
		return
	}

	if err := s.confirm.Confirm(c.Request.Context(), req.MeasureUUID, *req.ConfirmedValue); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type measureJSON struct {
	MeasureUUID     string `json:"measure_uuid"`
	MeasureDatetime string `json:"measure_datetime"`
	MeasureType     string `json:"measure_type"`
	HasConfirmed    bool   `json:"has_confirmed"`
	ImageURL        string `json:"image_url"`
}

type listResponse struct {
	CustomerCode string        `json:"customer_code"`
	Measures     []measureJSON `json:"measures"`
}

// ListMeasurements handles GET /:customer_code/list.
func (s *Server) ListMeasurements(c *gin.Context) {
	customerCode := c.Param("customer_code")
	measureType := c.Query("measure_type")

	result, err := s.list.List(c.Request.Context(), customerCode, measureType)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := listResponse{
		CustomerCode: result.CustomerCode,
		Measures:     make([]measureJSON, 0, len(result.Measures)),
	}
	for _, m := range result.Measures {
		resp.Measures = append(resp.Measures, measureJSON{
			MeasureUUID:     m.MeasureUUID,
			MeasureDatetime: m.MeasureDatetime.UTC().Format(time.RFC3339),
			MeasureType:     string(m.MeasureType),
			HasConfirmed:    m.HasConfirmed,
			ImageURL:        m.ImageURL,
		})
	}

	c.JSON(http.StatusOK, resp)
}
