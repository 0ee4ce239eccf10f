package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"secondhand_market/internal/pkg/config"
	"secondhand_market/pkg/utils"
)

// 压测场景：同一买家用同一个已通过的议价并发下单
// 议价消费是条件更新，无论并发多少，成功的订单必须恰好一单
var (
	baseURL       = flag.String("base", "http://localhost:8080", "server base url")
	buyerID       = flag.String("buyer", "", "buyer user id (uuid)")
	productID     = flag.String("product", "", "product id (uuid)")
	negotiationID = flag.String("negotiation", "", "approved negotiation id (uuid)")
	total         = flag.Int("n", 500, "concurrent order attempts")
)

var httpClient *http.Client

func init() {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

func main() {
	flag.Parse()
	if *buyerID == "" || *productID == "" || *negotiationID == "" {
		fmt.Println("usage: stress_tool -buyer <uuid> -product <uuid> -negotiation <uuid>")
		return
	}

	config.LoadConfig()
	token, _, err := utils.GenerateToken(*buyerID, utils.RoleUser)
	if err != nil {
		fmt.Printf("生成 token 失败: %v\n", err)
		return
	}

	fmt.Printf("开始压测：%d 个并发请求抢同一个议价下单...\n", *total)
	time.Sleep(1 * time.Second)

	var wg sync.WaitGroup
	successCount := 0
	conflictCount := 0
	otherCount := 0
	var mu sync.Mutex

	start := time.Now()

	for i := 0; i < *total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := createOrder(token)
			mu.Lock()
			switch status {
			case http.StatusCreated:
				successCount++
			case http.StatusConflict:
				conflictCount++
			default:
				otherCount++
			}
			mu.Unlock()
		}()
	}

	wg.Wait()
	duration := time.Since(start)
	qps := float64(*total) / duration.Seconds()

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("总请求数: %d\n", *total)
	fmt.Printf("QPS: %.2f\n", qps)
	fmt.Printf("下单成功: %d (预期: 1)\n", successCount)
	fmt.Printf("冲突拒绝 (409): %d\n", conflictCount)
	fmt.Printf("其他响应: %d\n", otherCount)
	fmt.Println("--------------------------------------------------")

	if successCount != 1 {
		fmt.Println("!!! 议价被重复消费，条件更新失效 !!!")
	}
}

func createOrder(token string) int {
	payload := map[string]interface{}{
		"productId":     *productID,
		"negotiationId": *negotiationID,
		"paymentMethod": "cod",
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, *baseURL+"/orders", bytes.NewBuffer(body))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode
}
