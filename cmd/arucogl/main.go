// arucogl composites spinning spheres over ArUco markers seen by a camera
// and streams the result to a browser.
//
//	arucogl serve --config arucogl.yml
//	arucogl snapshot board.jpg -o out.png
//	arucogl feed 0 --url ws://host:8080/ws/source/desk
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
