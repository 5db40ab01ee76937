package compute

// KernelName is the entry point the engine looks up on the device.
const KernelName = "cellStep"

// KernelSource is the OpenCL C source of the step program. Each thread
// computes one cell of the next generation; threads past the grid edge return
// without writing.
const KernelSource = `__kernel void cellStep(
    __global const float* input,
    __global float* output,
    __global const float* constants)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    int width = (int)constants[0];
    int height = (int)constants[1];
    if (x >= width || y >= height) {
        return;
    }
    int neighbors = 0;
    for (int dy = -1; dy <= 1; dy++) {
        for (int dx = -1; dx <= 1; dx++) {
            if (dx == 0 && dy == 0) {
                continue;
            }
            int nx = (x + dx + width) % width;
            int ny = (y + dy + height) % height;
            if (input[ny * width + nx] != 0.0f) {
                neighbors++;
            }
        }
    }
    int idx = y * width + x;
    int alive = input[idx] != 0.0f;
    output[idx] = (neighbors == 3 || (alive && neighbors == 2)) ? 1.0f : 0.0f;
}`
