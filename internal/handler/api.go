/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"api-manager/src/internal/constants"
	"api-manager/src/internal/dto"
	"api-manager/src/internal/middleware"
	"api-manager/src/internal/model"
	"api-manager/src/internal/service"
	"api-manager/src/internal/utils"
)

// APIHandler exposes the API management endpoints
type APIHandler struct {
	apiService  *service.ApiService
	deployment  *service.DeploymentService
	lifecycle   *service.LifecycleService
	sync        *service.SyncService
	planService *service.PlanService
}

// NewAPIHandler creates a new APIHandler instance
func NewAPIHandler(apiService *service.ApiService, deployment *service.DeploymentService,
	lifecycle *service.LifecycleService, sync *service.SyncService,
	planService *service.PlanService) *APIHandler {
	return &APIHandler{
		apiService:  apiService,
		deployment:  deployment,
		lifecycle:   lifecycle,
		sync:        sync,
		planService: planService,
	}
}

// RegisterRoutes registers the API management routes
func (h *APIHandler) RegisterRoutes(router *gin.Engine) {
	apis := router.Group("/api/v1/apis")
	{
		apis.POST("", h.CreateAPI)
		apis.GET("", h.ListAPIs)
		apis.GET("/:apiId", h.GetAPI)
		apis.PUT("/:apiId", h.UpdateAPI)
		apis.DELETE("/:apiId", h.DeleteAPI)

		apis.POST("/:apiId/lifecycle", h.ChangeLifecycle)
		apis.POST("/:apiId/deploy", h.Deploy)
		apis.POST("/:apiId/start", h.Start)
		apis.POST("/:apiId/stop", h.Stop)
		apis.POST("/:apiId/rollback", h.Rollback)
		apis.GET("/:apiId/state", h.GetState)
		apis.GET("/:apiId/events", h.ListEvents)
		apis.GET("/:apiId/definition", h.ExportDefinition)

		apis.POST("/:apiId/plans", h.CreatePlan)
		apis.GET("/:apiId/plans", h.ListPlans)
	}

	plans := router.Group("/api/v1/plans")
	{
		plans.GET("/:planId", h.GetPlan)
		plans.PUT("/:planId", h.UpdatePlan)
		plans.POST("/:planId/deprecate", h.DeprecatePlan)
	}
}

// CreateAPI handles POST /api/v1/apis and creates a new API
func (h *APIHandler) CreateAPI(c *gin.Context) {
	var req dto.CreateAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(400, "Bad Request", err.Error()))
		return
	}

	user := middleware.GetUserFromContext(c)
	api, err := h.apiService.CreateAPI(c.Request.Context(), &req, user)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusCreated, toAPIResponse(api))
}

// ListAPIs handles GET /api/v1/apis
func (h *APIHandler) ListAPIs(c *gin.Context) {
	apis, err := h.apiService.ListAPIs(c.Request.Context())
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}

	list := make([]dto.APIResponse, 0, len(apis))
	for _, api := range apis {
		list = append(list, toAPIResponse(api))
	}
	c.JSON(http.StatusOK, dto.APIListResponse{Count: len(list), List: list})
}

// GetAPI handles GET /api/v1/apis/:apiId
func (h *APIHandler) GetAPI(c *gin.Context) {
	api, err := h.apiService.GetAPI(c.Request.Context(), c.Param("apiId"))
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, toAPIResponse(api))
}

// UpdateAPI handles PUT /api/v1/apis/:apiId
func (h *APIHandler) UpdateAPI(c *gin.Context) {
	var req dto.UpdateAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(400, "Bad Request", err.Error()))
		return
	}

	user := middleware.GetUserFromContext(c)
	api, err := h.apiService.UpdateAPI(c.Request.Context(), c.Param("apiId"), &req, user)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, toAPIResponse(api))
}

// DeleteAPI handles DELETE /api/v1/apis/:apiId
func (h *APIHandler) DeleteAPI(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	if err := h.apiService.DeleteAPI(c.Request.Context(), c.Param("apiId"), user); err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangeLifecycle handles POST /api/v1/apis/:apiId/lifecycle
func (h *APIHandler) ChangeLifecycle(c *gin.Context) {
	var req dto.LifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(400, "Bad Request", err.Error()))
		return
	}

	user := middleware.GetUserFromContext(c)
	api, err := h.lifecycle.ApplyTransition(c.Request.Context(), c.Param("apiId"),
		strings.ToUpper(req.State), user)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, toAPIResponse(api))
}

// Deploy handles POST /api/v1/apis/:apiId/deploy. The event type defaults to
// PUBLISH_API; UNPUBLISH_API records an undeploy snapshot. Both request
// fields are optional, so the body itself may be omitted entirely.
func (h *APIHandler) Deploy(c *gin.Context) {
	var req dto.DeployRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(400, "Bad Request", err.Error()))
			return
		}
	}

	eventType := strings.ToUpper(req.EventType)
	if eventType == "" {
		eventType = constants.EventPublishAPI
	}

	user := middleware.GetUserFromContext(c)
	api, err := h.deployment.Deploy(c.Request.Context(), c.Param("apiId"), user, eventType, req.Label)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, toAPIResponse(api))
}

// Start handles POST /api/v1/apis/:apiId/start
func (h *APIHandler) Start(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	api, err := h.apiService.StartAPI(c.Request.Context(), c.Param("apiId"), user)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, toAPIResponse(api))
}

// Stop handles POST /api/v1/apis/:apiId/stop
func (h *APIHandler) Stop(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	api, err := h.apiService.StopAPI(c.Request.Context(), c.Param("apiId"), user)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, toAPIResponse(api))
}

// Rollback handles POST /api/v1/apis/:apiId/rollback
func (h *APIHandler) Rollback(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	api, err := h.apiService.RollbackAPI(c.Request.Context(), c.Param("apiId"), user)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, toAPIResponse(api))
}

// GetState handles GET /api/v1/apis/:apiId/state and reports the
// synchronization verdict.
func (h *APIHandler) GetState(c *gin.Context) {
	apiID := c.Param("apiId")

	// Distinguish a missing API from an out-of-sync one.
	if _, err := h.apiService.GetAPI(c.Request.Context(), apiID); err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}

	synchronized := h.sync.IsSynchronized(c.Request.Context(), apiID)
	c.JSON(http.StatusOK, dto.SyncStatusResponse{ApiID: apiID, Synchronized: synchronized})
}

// ListEvents handles GET /api/v1/apis/:apiId/events
func (h *APIHandler) ListEvents(c *gin.Context) {
	events, err := h.apiService.ListEvents(c.Request.Context(), c.Param("apiId"))
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}

	list := make([]dto.EventResponse, 0, len(events))
	for _, event := range events {
		list = append(list, dto.EventResponse{
			ID:               event.ID,
			Type:             event.Type,
			DeploymentNumber: event.Properties[constants.EventPropertyDeploymentNumber],
			DeploymentLabel:  event.Properties[constants.EventPropertyDeploymentLabel],
			User:             event.Properties[constants.EventPropertyUser],
			CreatedAt:        event.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, dto.EventListResponse{Count: len(list), List: list})
}

// ExportDefinition handles GET /api/v1/apis/:apiId/definition?format=json|yaml
func (h *APIHandler) ExportDefinition(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	out, err := h.apiService.ExportDefinition(c.Request.Context(), c.Param("apiId"), format)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}

	contentType := "application/json"
	if strings.EqualFold(format, "yaml") {
		contentType = "application/yaml"
	}
	c.Data(http.StatusOK, contentType, out)
}

// CreatePlan handles POST /api/v1/apis/:apiId/plans
func (h *APIHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(400, "Bad Request", err.Error()))
		return
	}

	user := middleware.GetUserFromContext(c)
	plan, err := h.planService.CreatePlan(c.Request.Context(), c.Param("apiId"), &req, user)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusCreated, toPlanResponse(plan))
}

// ListPlans handles GET /api/v1/apis/:apiId/plans
func (h *APIHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans(c.Request.Context(), c.Param("apiId"))
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}

	list := make([]dto.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		list = append(list, toPlanResponse(plan))
	}
	c.JSON(http.StatusOK, dto.PlanListResponse{Count: len(list), List: list})
}

// GetPlan handles GET /api/v1/plans/:planId
func (h *APIHandler) GetPlan(c *gin.Context) {
	plan, err := h.planService.GetPlan(c.Request.Context(), c.Param("planId"))
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, toPlanResponse(plan))
}

// UpdatePlan handles PUT /api/v1/plans/:planId
func (h *APIHandler) UpdatePlan(c *gin.Context) {
	var req dto.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(400, "Bad Request", err.Error()))
		return
	}

	user := middleware.GetUserFromContext(c)
	plan, err := h.planService.UpdatePlan(c.Request.Context(), c.Param("planId"), &req, user)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, toPlanResponse(plan))
}

// DeprecatePlan handles POST /api/v1/plans/:planId/deprecate
func (h *APIHandler) DeprecatePlan(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	plan, err := h.planService.DeprecatePlan(c.Request.Context(), c.Param("planId"), user)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, toPlanResponse(plan))
}

func toAPIResponse(api *model.Api) dto.APIResponse {
	return dto.APIResponse{
		ID:              api.ID,
		Name:            api.Name,
		Version:         api.Version,
		Description:     api.Description,
		LifecycleState:  api.LifecycleState,
		DeploymentState: api.DeploymentState,
		WorkflowState:   api.WorkflowState,
		Definition:      api.Definition,
		DeployedAt:      api.DeployedAt,
		CreatedAt:       api.CreatedAt,
		UpdatedAt:       api.UpdatedAt,
	}
}

func toPlanResponse(plan *model.Plan) dto.PlanResponse {
	return dto.PlanResponse{
		ID:             plan.ID,
		ApiID:          plan.ApiID,
		Name:           plan.Name,
		Description:    plan.Description,
		Status:         plan.Status,
		Security:       plan.Security,
		NeedRedeployAt: plan.NeedRedeployAt,
		CreatedAt:      plan.CreatedAt,
		UpdatedAt:      plan.UpdatedAt,
	}
}
