package ws2812_test

import (
	"fmt"
	"log"

	"github.com/coreman2200/ledsync/hal/haltest"
	"github.com/coreman2200/ledsync/ws2812"
)

func Example() {
	hw := haltest.New()
	drv, err := ws2812.Init(hw, ws2812.Config{})
	if err != nil {
		log.Fatal(err)
	}

	f, err := drv.Begin()
	if err != nil {
		log.Fatal(err)
	}
	f.WriteColor(0xFF, 0x00, 0x00)
	f.WriteColor(0x00, 0xFF, 0x00)
	f.WriteColor(0x00, 0x00, 0xFF)
	f.Latch()

	fmt.Printf("% X\n", hw.Sent[:9])
	fmt.Println(len(hw.Sent), hw.Mode, hw.Level)
	// Output:
	// 80 80 80 80 80 80 80 80 00
	// 81 Output Low
}
