// Command quietcut finds the spoken parts of recordings and renders each one
// as an MP3 clip.
//
//	quietcut split talk.mp4            # detect and render clips
//	quietcut detect talk.mp4 --json    # print kept intervals only
//	quietcut scan ~/Recordings         # process every new file in a folder
//	quietcut history --status failed   # inspect the processed-file ledger
//	quietcut doctor                    # check ffmpeg, ffprobe, and directories
package main
