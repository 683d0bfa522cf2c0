// internal/handlers/contact.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/services"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type ContactHandler struct {
	contactService *services.ContactService
}

func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// POST /contacts/addContact
func (h *ContactHandler) AddContact(c *gin.Context) {
	var req services.ContactRequest
	if !bindJSON(c, &req) {
		return
	}

	contact, err := h.contactService.Add(c.Request.Context(), &req)
	if err != nil {
		handleError(c, "add_contact", err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": message(c, i18n.KeyContactSaved),
		"contact": contact,
	})
}

// GET /contacts/getContact
func (h *ContactHandler) GetContacts(c *gin.Context) {
	result, err := h.contactService.List(c.Request.Context(), utils.GetPaginationParams(c))
	if err != nil {
		handleError(c, "list_contacts", err)
		return
	}
	utils.PaginatedResponse(c, result)
}

// DELETE /contacts/remove/:id
func (h *ContactHandler) RemoveContact(c *gin.Context) {
	id, ok := paramID(c, "id", "contact")
	if !ok {
		return
	}
	if err := h.contactService.Remove(c.Request.Context(), id); err != nil {
		handleError(c, "remove_contact", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeyContactRemoved)})
}
