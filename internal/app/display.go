package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_compass/internal/compass"
	"github.com/relabs-tech/inertial_compass/internal/config"
)

const (
	displayW = 128
	displayH = 64
)

// addrBus pins every transaction to one address, so a display strapped
// to a non-default address can be driven by a driver that assumes 0x3C.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// displayLines lays out a view as the five text rows of the OLED.
func displayLines(v compass.View) [5]string {
	var l [5]string
	if v.HasHeading {
		l[0] = fmt.Sprintf("HDG %3d %s", v.Heading, v.Direction)
		l[1] = fmt.Sprintf("TRUE %3d D%+.1f", v.TrueHeading, v.Declination)
	} else {
		l[0] = "HDG ---"
		l[1] = "Waiting..."
	}
	if v.Pressure != "" {
		l[2] = "P " + v.Pressure
	}
	switch {
	case v.Locality != "":
		l[3] = v.Locality
	case v.HasLocation:
		l[3] = fmt.Sprintf("%.4f %.4f", v.Latitude, v.Longitude)
	}
	l[4] = "[" + v.ButtonLabel + "]"
	return l
}

func drawLines(lines []string, xs []int) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		x := 0
		if i < len(xs) {
			x = xs[i]
		}
		drawer.Dot = fixed.P(x, 12+i*13)
		drawer.DrawString(line)
	}
	return img
}

// renderView draws a view for the 128x64 panel.
func renderView(v compass.View) *image1bit.VerticalLSB {
	l := displayLines(v)
	return drawLines(l[:], nil)
}

func showSplash(dev *ssd1306.Dev) error {
	img := drawLines([]string{"", "Inertial Pi", "Bussola"}, []int{0, 10, 25})
	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// RunDisplay shows the compass view on an SSD1306 OLED.
func RunDisplay() error {
	cfg := config.Get()
	if !cfg.DisplayEnabled {
		log.Println("display: disabled in config")
		return nil
	}

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(addrBus{Bus: bus, addr: cfg.DisplayI2CAddr}, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	var (
		mu       sync.RWMutex
		lastView compass.View
		haveView bool
	)

	mqttBus, err := dialBus(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer mqttBus.Close()

	if err := mqttBus.Subscribe(cfg.TopicView, func(payload []byte) {
		var v compass.View
		if err := json.Unmarshal(payload, &v); err != nil {
			log.Printf("display: view unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastView = v
		haveView = true
		mu.Unlock()
	}); err != nil {
		return err
	}
	log.Printf("display: subscribed to %s", cfg.TopicView)

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for range ticker.C {
		mu.RLock()
		v, ok := lastView, haveView
		mu.RUnlock()
		if !ok {
			continue
		}
		if err := dev.Draw(dev.Bounds(), renderView(v), image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
	return nil
}
