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
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"api-manager/src/internal/dto"
	"api-manager/src/internal/service"
	"api-manager/src/internal/utils"
)

const (
	defaultAuditPageSize = 25
	maxAuditPageSize     = 200
)

// AuditHandler exposes the audit trail endpoints
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new AuditHandler instance
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// RegisterRoutes registers the audit trail routes
func (h *AuditHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/v1/audits", h.ListAudits)
}

// ListAudits handles GET /api/v1/audits?referenceType=API&limit=25&offset=0
func (h *AuditHandler) ListAudits(c *gin.Context) {
	referenceType := strings.ToUpper(c.Query("referenceType"))

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAuditPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	audits, err := h.auditService.List(c.Request.Context(), referenceType, limit, offset)
	if err != nil {
		status, response := utils.GetErrorResponse(err)
		c.JSON(status, response)
		return
	}

	list := make([]dto.AuditResponse, 0, len(audits))
	for _, audit := range audits {
		list = append(list, dto.AuditResponse{
			ID:            audit.ID,
			ReferenceType: audit.ReferenceType,
			ReferenceID:   audit.ReferenceID,
			Event:         audit.Event,
			User:          audit.User,
			Patch:         audit.Patch,
			Properties:    audit.Properties,
			CreatedAt:     audit.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, dto.AuditListResponse{Count: len(list), List: list})
}
