package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/models"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		token, user, err := models.Login(input.Username, input.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": gin.H{
				"id":   user.ID,
				"name": user.Name,
				"role": user.Role,
			},
		})
	}
}

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		customer, err := models.CreateCustomer(c.Request.Context(), input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func createPosOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPosOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		order, err := models.CreatePosOrder(c.Request.Context(), input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func closeSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			SessionId int `json:"session_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		err := workflow.ProcessSessionCloseWorkflow(config.GetDB(), config.GetLogger(), input.SessionId)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// receiptForInvoice resolves the linked order and builds the print snapshot.
func receiptForInvoice(db *gorm.DB, move *models.AccountMove) (*models.FiscalReceipt, error) {
	order, err := models.GetOrderByInvoice(db, move.ID)
	if err != nil {
		return nil, err
	}
	return models.BuildFiscalReceipt(db, order, move)
}

func lastFiscalInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		move, err := models.GetLastInvoiceForUser(db, userId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ready": false, "error": err.Error()})
			return
		}
		if move == nil {
			c.JSON(http.StatusOK, gin.H{"ready": false, "message": "No hay facturas para este usuario"})
			return
		}
		receipt, err := receiptForInvoice(db, move)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ready": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, receipt)
	}
}

func fiscalInvoiceByReferenceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		reference := c.Query("reference")
		if reference == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ready": false, "error": "reference is required"})
			return
		}
		db := config.GetDB()
		companyId, _ := utils.GetCompanyIdFromContext(c.Request.Context())
		// cross-user on purpose: any till can reprint any receipt
		move, err := models.GetInvoiceByOrigin(db, companyId, reference)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ready": false, "error": err.Error()})
			return
		}
		if move == nil {
			c.JSON(http.StatusOK, gin.H{"ready": false})
			return
		}
		receipt, err := receiptForInvoice(db, move)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ready": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, receipt)
	}
}

func nextFiscalInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		// the bridge polls this: only the cashier's latest invoice counts, and
		// only while it is posted, pending and not yet printed
		move, err := models.GetLastInvoiceForUser(db, userId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ready": false, "error": err.Error()})
			return
		}
		if move == nil || !move.IsPendingPrint() {
			c.JSON(http.StatusOK, gin.H{"ready": false})
			return
		}
		receipt, err := receiptForInvoice(db, move)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ready": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, receipt)
	}
}

func triggerFiscalInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Reference string `json:"reference" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": utils.ProcessValidationErrors(err)})
			return
		}
		companyId, _ := utils.GetCompanyIdFromContext(c.Request.Context())
		move, err := workflow.TriggerFiscalInvoice(config.GetDB(), config.GetLogger(), companyId, input.Reference)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": err.Error()})
			return
		}
		if move == nil {
			c.JSON(http.StatusOK, gin.H{"ok": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "invoice_id": move.ID})
	}
}

func markFiscalPrintedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			InvoiceId int `json:"invoice_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": utils.ProcessValidationErrors(err)})
			return
		}
		ok, err := models.MarkFiscalPrinted(c.Request.Context(), input.InvoiceId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": ok})
	}
}

func checkNcfAvailableHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		companyId, _ := utils.GetCompanyIdFromContext(c.Request.Context())
		company, err := models.GetCompany(db, companyId)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": "company not found"})
			return
		}
		var customer *models.Customer
		if s := c.Query("customer_id"); s != "" {
			id, err := strconv.Atoi(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid customer_id"})
				return
			}
			customer, err = models.GetCustomer(db, id)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": "customer not found"})
				return
			}
		}
		availability, err := workflow.CheckNcfAvailable(db, company, customer)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, availability)
	}
}

func fiscalRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sweeper := workflow.NewFiscalSweeper(config.GetDB(), config.GetLogger())
		if companyId, ok := utils.GetCompanyIdFromContext(c.Request.Context()); ok && companyId > 0 {
			sweeper.CompanyId = companyId
		}
		sweeper.SweepOnce(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
