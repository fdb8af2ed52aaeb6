package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/stock-sync/internal/adapter/handler"
	"github.com/rl1809/stock-sync/internal/core/domain"
)

// Fires concurrent RunSync calls at a running server. At most one of each
// overlapping wave may run; the rest must come back skipped.
func main() {
	addr := flag.String("addr", "localhost:50051", "gRPC address of the sync server")
	totalRequests := flag.Int("n", 50, "concurrent RunSync calls")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to dial %s: %v", *addr, err)
	}
	defer conn.Close()

	client := handler.NewSyncServiceClient(conn)
	ctx := context.Background()

	// Counters
	var successCount, skippedCount, otherCount, failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := client.RunSync(ctx, &handler.RunSyncRequest{})
			if err != nil {
				failCount.Add(1)
				return
			}
			switch resp.Report.Status {
			case domain.RunSuccess:
				successCount.Add(1)
			case domain.RunSkipped:
				skippedCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	skipped := skippedCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Completed:        %d\n", success)
	fmt.Printf("Skipped:          %d\n", skipped)
	fmt.Printf("Timeout/Error:    %d\n", otherCount.Load())
	fmt.Printf("RPC Failures:     %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success+skipped+otherCount.Load() == int32(*totalRequests) && success >= 1 {
		fmt.Println("PASS: every call answered, overlapping calls were skipped")
	} else {
		fmt.Println("FAIL: unexpected outcome distribution")
	}

	status, err := client.GetStatus(ctx, &handler.GetStatusRequest{})
	if err != nil {
		log.Fatalf("failed to get status: %v", err)
	}
	if status.Status.IsSyncing {
		fmt.Println("FAIL: server still reports a cycle in flight")
	} else {
		fmt.Println("PASS: single-flight flag released")
	}
}
