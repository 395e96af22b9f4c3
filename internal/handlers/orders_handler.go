package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cakedaddy/storefront/internal/aws"
	"github.com/cakedaddy/storefront/internal/idempotency"
	"github.com/cakedaddy/storefront/internal/orders"
	"github.com/cakedaddy/storefront/internal/validation"
)

// HandlerConfig groups dependencies for the API handlers.
type HandlerConfig struct {
	DynamoDBClient   aws.DynamoDBAPI
	SQSClient        aws.SQSAPI
	IdempotencyTable string
	OrdersTable      string
	ProductsTable    string
	QueueURL         string
	TTLWindow        time.Duration
}

// RegisterOrdersRoutes registers routes for the order API.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	idempStore := idempotency.NewStore(cfg.DynamoDBClient, cfg.IdempotencyTable, cfg.TTLWindow)
	ordersStore := orders.NewStore(cfg.DynamoDBClient, cfg.OrdersTable)
	publisher := aws.NewPublisher(cfg.SQSClient, cfg.QueueURL)

	r.POST("/api/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		// Bind + validate request
		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		// Require idempotency key header
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
			return
		}

		// Generate order id
		orderID := uuid.NewString()

		// Build idempotency item (map) - lightweight
		now := time.Now().UTC()
		idempItem := map[string]interface{}{
			"idempotency_key": idempKey,
			"status":          idempotency.StatusInProgress,
			"created_at":      now.Format(time.RFC3339),
			"updated_at":      now.Format(time.RFC3339),
			"order_id":        orderID,
		}

		items := make([]orders.Item, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, orders.Item{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				Price:       it.Price,
			})
		}

		order := orders.Order{
			OrderID:             orderID,
			UserID:              req.UserID,
			CustomerName:        req.CustomerName,
			Email:               req.Email,
			Phone:               req.Phone,
			DeliveryAddress:     req.DeliveryAddress,
			Items:               items,
			TotalAmount:         req.TotalAmount,
			SpecialInstructions: req.SpecialInstructions,
			Status:              orders.StatusPending,
			CreatedAt:           now,
			UpdatedAt:           now,
		}

		// Attempt the transact write to create idempotency + order atomically
		err := ordersStore.CreateWithIdempotencyTransaction(ctx, cfg.IdempotencyTable, idempItem, order, cfg.TTLWindow)
		if err != nil {
			// If the transaction failed because the key exists, fetch the
			// idempotency record and return the stored response or 202.
			rec, getErr := idempStore.Get(ctx, idempKey)
			if getErr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": getErr.Error()})
				return
			}
			if rec == nil {
				// Unexpected: transaction failed but no record found
				c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction_failed_no_idempotency_record", "detail": err.Error()})
				return
			}
			switch rec.Status {
			case idempotency.StatusDone:
				if rec.ResponseBody != "" {
					var body interface{}
					if derr := json.Unmarshal([]byte(rec.ResponseBody), &body); derr == nil {
						c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
						return
					}
					c.JSON(rec.ResponseStatus, gin.H{"response": rec.ResponseBody})
					return
				}
				c.JSON(http.StatusOK, gin.H{"id": rec.OrderID})
				return
			case idempotency.StatusInProgress:
				c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "id": rec.OrderID})
				return
			case idempotency.StatusFailed:
				// let client retry
				c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "id": rec.OrderID})
				return
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
				return
			}
		}

		// Records created atomically; now enqueue the confirmation message.
		// If SQS send fails we mark idempotency FAILED so the client can retry.
		msgPayload := map[string]string{
			"order_id":        orderID,
			"idempotency_key": idempKey,
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		attrs := map[string]string{
			"idempotency_key": idempKey,
			"order_id":        orderID,
			"correlation_id":  c.GetHeader("X-Request-Id"),
		}

		if err := publisher.SendOrderMessage(ctx, string(payloadBytes), attrs); err != nil {
			_ = idempStore.MarkFailed(ctx, idempKey, fmt.Sprintf("sqs_send_failed: %v", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed", "detail": err.Error()})
			return
		}

		// Store a minimal response in idempotency to replay for duplicates
		responseBody, _ := json.Marshal(gin.H{"id": orderID, "status": orders.StatusPending})
		_ = idempStore.MarkDone(ctx, idempKey, string(responseBody), http.StatusCreated)

		c.Header("Location", fmt.Sprintf("/api/orders/%s", orderID))
		c.JSON(http.StatusCreated, gin.H{"id": orderID, "status": orders.StatusPending})
	})

	r.GET("/api/orders/:id", func(c *gin.Context) {
		order, err := ordersStore.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed", "detail": err.Error()})
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		c.JSON(http.StatusOK, order)
	})

	r.GET("/api/orders", func(c *gin.Context) {
		list, err := ordersStore.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/api/orders/user/:userId", func(c *gin.Context) {
		list, err := ordersStore.ListByUser(c.Request.Context(), c.Param("userId"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/api/orders/status/:status", func(c *gin.Context) {
		status := c.Param("status")
		if !orders.ValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status", "status": status})
			return
		}
		list, err := ordersStore.ListByStatus(c.Request.Context(), status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	// Admin console moves orders through the lifecycle. The conditional
	// write rejects stale updates from a second console session.
	r.PUT("/api/orders/:id/status", func(c *gin.Context) {
		var body struct {
			Status string `json:"status"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
			return
		}
		if !orders.ValidStatus(body.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status", "status": body.Status})
			return
		}

		ctx := c.Request.Context()
		orderID := c.Param("id")
		order, err := ordersStore.Get(ctx, orderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed", "detail": err.Error()})
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}

		err = ordersStore.UpdateStatus(ctx, orderID, order.Status, body.Status)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"id": orderID, "status": body.Status})
		case errors.Is(err, orders.ErrIllegalTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "illegal_transition", "from": order.Status, "to": body.Status})
		case errors.Is(err, orders.ErrStatusMismatch):
			c.JSON(http.StatusConflict, gin.H{"error": "status_changed_concurrently"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed", "detail": err.Error()})
		}
	})
}
