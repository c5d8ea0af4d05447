package ebay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// GetOrders lists orders created after the given time, paging through the
// collection until exhausted.
func (c *Client) GetOrders(ctx context.Context, token string, createdAfter time.Time) ([]Order, error) {
	filter := fmt.Sprintf("creationdate:[%s..]", createdAfter.UTC().Format("2006-01-02T15:04:05.000Z"))

	var orders []Order
	offset := 0
	const limit = 50
	for {
		path := fmt.Sprintf("/sell/fulfillment/v1/order?filter=%s&limit=%d&offset=%d",
			url.QueryEscape(filter), limit, offset)
		var resp OrdersResponse
		if err := c.doRequest(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
			return nil, err
		}
		orders = append(orders, resp.Orders...)
		offset += limit
		if resp.Next == "" || len(resp.Orders) == 0 || offset >= resp.Total {
			break
		}
	}
	return orders, nil
}

// GetOrder fetches the fulfillment detail of a single order.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*Order, error) {
	path := "/sell/fulfillment/v1/order/" + url.PathEscape(orderID)
	var resp Order
	if err := c.doRequest(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
