package controller

import (
	"educorp_backend/internal/middleware"
	"educorp_backend/internal/service"
	"educorp_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
}

func NewAssessmentController(assessmentService *service.AssessmentService) *AssessmentController {
	return &AssessmentController{AssessmentService: assessmentService}
}

// GetLearningStyleTest godoc
// @Summary Active learning-style test with ordered questions and choices
// @Tags assessment
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=model.Assessment}
// @Failure 503 {object} util.Response "No active test configured"
// @Router /api/assessments/learning-style [get]
func (c *AssessmentController) GetLearningStyleTest(ctx *gin.Context) {
	assessment, err := c.AssessmentService.GetActiveAssessment(ctx.Request.Context(), c.AssessmentService.AssessmentType)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if assessment == nil {
		util.HandleError(ctx, util.ErrConfigurationMissing)
		return
	}
	util.Success(ctx, assessment)
}

// SubmitLearningStyleTest godoc
// @Summary Submit a complete answer sheet
// @Description Scores the answers and assigns the resulting learning style to the caller
// @Tags assessment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body service.TestSubmission true "Answers"
// @Success 200 {object} util.Response{data=model.TestResult}
// @Failure 400 {object} util.Response
// @Router /api/assessments/learning-style/submit [post]
func (c *AssessmentController) SubmitLearningStyleTest(ctx *gin.Context) {
	var req service.TestSubmission
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AssessmentService.SubmitLearningStyleTest(ctx.Request.Context(), middleware.CurrentSession(ctx).UserID, &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListLearningStyles godoc
// @Summary Learning-style catalog
// @Tags assessment
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response{data=[]model.LearningStyle}
// @Router /api/learning-styles [get]
func (c *AssessmentController) ListLearningStyles(ctx *gin.Context) {
	util.Success(ctx, c.AssessmentService.ListLearningStyles(ctx.Request.Context()))
}

// GetLearningStyle godoc
// @Summary Learning style detail
// @Tags assessment
// @Security BearerAuth
// @Produce json
// @Param id path string true "Learning style ID"
// @Success 200 {object} util.Response{data=model.LearningStyle}
// @Failure 404 {object} util.Response
// @Router /api/learning-styles/{id} [get]
func (c *AssessmentController) GetLearningStyle(ctx *gin.Context) {
	style, err := c.AssessmentService.GetLearningStyle(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if style == nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, style)
}
