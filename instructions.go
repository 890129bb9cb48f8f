package schip

import "io"

func (cpu *Cpu) executeInstruction(opCode uint16) error {
	x := (opCode & 0x0F00) >> 8
	y := (opCode & 0x00F0) >> 4
	n := byte(opCode & 0x000F)
	kk := byte(opCode & 0x00FF)
	nnn := opCode & 0x0FFF

	switch opCode & 0xF000 {
	case 0x0000:
		switch {
		case opCode == 0x00E0:
			// CLS :: Clear the display.
			cpu.Screen.Clear()

		case opCode&0xFFF0 == 0x00C0:
			// SCD nibble :: Scroll the display down by n rows.
			cpu.Screen.ScrollDown(int(n))

		case opCode == 0x00EE:
			// RET :: Return from a subroutine.
			pc, err := cpu.Stack.pop()
			if err != nil {
				return err
			}
			cpu.Pc = pc

		case opCode == 0x00FB:
			// SCR :: Scroll the display right by 4 pixels.
			cpu.Screen.ScrollRight()

		case opCode == 0x00FC:
			// SCL :: Scroll the display left by 4 pixels.
			cpu.Screen.ScrollLeft()

		case opCode == 0x00FD:
			// EXIT :: Exit the interpreter.
			return ErrExit

		case opCode == 0x00FE:
			// LOW :: Switch to the 64x32 mode.
			cpu.Screen.SetResolution(SmallScreen)

		case opCode == 0x00FF:
			// HIGH :: Switch to the 128x64 mode.
			cpu.Screen.SetResolution(LargeScreen)

		default:
			// SYS :: Jump to a machine code routine at nnn.
			// Only used on the original machines, so it is rejected unless an interpreter was provided.
			if cpu.machineRoutineInterpreter == nil {
				return cpu.unknownOpCode(opCode)
			}
			return cpu.machineRoutineInterpreter(opCode, cpu)
		}

	case 0x1000:
		// JP addr :: Jump to location nnn.
		cpu.Pc = nnn

	case 0x2000:
		// CALL addr :: Call subroutine at nnn.
		if err := cpu.Stack.push(cpu.Pc); err != nil {
			return err
		}
		cpu.Pc = nnn

	case 0x3000:
		// SE Vx, byte :: Skip next instruction if Vx = kk.
		if cpu.V[x] == kk {
			cpu.skip()
		}

	case 0x4000:
		// SNE Vx, byte :: Skip next instruction if Vx != kk.
		if cpu.V[x] != kk {
			cpu.skip()
		}

	case 0x5000:
		// SE Vx, Vy :: Skip next instruction if Vx = Vy.
		if cpu.V[x] == cpu.V[y] {
			cpu.skip()
		}

	case 0x6000:
		// LD Vx, byte :: Set Vx = kk.
		cpu.V[x] = kk

	case 0x7000:
		// ADD Vx, byte :: Set Vx = Vx + kk.
		cpu.V[x] = cpu.V[x] + kk

	case 0x8000:
		// Inter-register operations

		switch opCode & 0x000F {
		case 0x0000:
			// LD Vx, Vy :: Set Vx = Vy.
			cpu.V[x] = cpu.V[y]

		case 0x0001:
			// OR Vx, Vy :: Set Vx = Vx OR Vy.
			cpu.V[x] |= cpu.V[y]

		case 0x0002:
			// AND Vx, Vy :: Set Vx = Vx AND Vy.
			cpu.V[x] &= cpu.V[y]

		case 0x0003:
			// XOR Vx, Vy :: Set Vx = Vx XOR Vy.
			cpu.V[x] ^= cpu.V[y]

		case 0x0004:
			// ADD Vx, Vy :: Set Vx = Vx + Vy, set VF = carry.
			r := uint16(cpu.V[x]) + uint16(cpu.V[y])
			cpu.V[0xF] = bool2byte(r > 0xFF)
			cpu.V[x] = byte(r & 0x00FF)

		case 0x0005:
			// SUB Vx, Vy :: Set Vx = Vx - Vy, set VF = NOT borrow.
			carry := cpu.V[x] >= cpu.V[y]
			cpu.V[0xF] = bool2byte(carry)
			cpu.V[x] = cpu.V[x] - cpu.V[y]

		case 0x0006:
			// SHR Vx {, Vy} :: Set Vx = Vx SHR 1.
			// Vy is ignored.
			carry := cpu.V[x] & 0b00000001
			cpu.V[0xF] = carry
			cpu.V[x] = cpu.V[x] >> 1

		case 0x0007:
			// SUBN Vx, Vy :: Set Vx = Vy - Vx, set VF = NOT borrow.
			carry := cpu.V[y] >= cpu.V[x]
			cpu.V[0xF] = bool2byte(carry)
			cpu.V[x] = cpu.V[y] - cpu.V[x]

		case 0x000E:
			// SHL Vx {, Vy} :: Set Vx = Vx SHL 1.
			// Vy is ignored.
			carry := (cpu.V[x] & 0b10000000) >> 7
			cpu.V[0xF] = carry
			cpu.V[x] = cpu.V[x] << 1

		default:
			return cpu.unknownOpCode(opCode)
		}

	case 0x9000:
		// SNE Vx, Vy :: Skip next instruction if Vx != Vy.
		if cpu.V[x] != cpu.V[y] {
			cpu.skip()
		}

	case 0xA000:
		// LD I, addr :: Set I = nnn.
		cpu.I = nnn

	case 0xB000:
		// JP V0, addr :: Jump to location nnn + V0.
		cpu.Pc = (uint16(cpu.V[0]) + nnn) & addressMask

	case 0xC000:
		// RND Vx, byte :: Set Vx = random byte AND kk.
		buff := [1]byte{}
		if _, err := io.ReadFull(cpu.random, buff[:]); err != nil {
			return err
		}

		cpu.V[x] = buff[0] & kk

	case 0xD000:
		// DRW Vx, Vy, nibble :: Display n-byte sprite starting at memory location I at (Vx, Vy), set VF = collision.
		// DRW Vx, Vy, 0 draws a 16x16 sprite made of 2 bytes per row.
		cpu.V[0xF] = bool2byte(cpu.drawSprite(cpu.V[x], cpu.V[y], n))

	case 0xE000:
		// Skip if ...

		switch opCode & 0x00FF {
		case 0x009E:
			// SKP Vx :: Skip next instruction if key with the value of Vx is pressed.
			if cpu.Keypad.IsPressed(cpu.V[x]) {
				cpu.skip()
			}
		case 0x00A1:
			// SKNP Vx :: Skip next instruction if key with the value of Vx is not pressed.
			if !cpu.Keypad.IsPressed(cpu.V[x]) {
				cpu.skip()
			}
		default:
			return cpu.unknownOpCode(opCode)
		}

	case 0xF000:
		// other operations

		switch opCode & 0x00FF {
		case 0x0007:
			// LD Vx, DT :: Set Vx = delay timer value.
			cpu.V[x] = cpu.DelayTimer()
		case 0x000A:
			// LD Vx, K :: Wait for a key press, store the value of the key in Vx.
			// Any key that is held satisfies the wait. Otherwise the instruction runs again next cycle.
			if k, pressed := cpu.Keypad.GetPressed(); pressed {
				cpu.V[x] = k
			} else {
				cpu.Pc = (cpu.Pc - 2) & addressMask
			}
		case 0x0015:
			// LD DT, Vx :: Set delay timer = Vx.
			cpu.dt.Store(uint32(cpu.V[x]))
		case 0x0018:
			// LD ST, Vx :: Set sound timer = Vx.
			cpu.st.Store(uint32(cpu.V[x]))
		case 0x001E:
			// ADD I, Vx :: Set I = I + Vx, set VF = 1 on overflow. VF is never cleared.
			r := cpu.I + uint16(cpu.V[x])
			if r > addressMask {
				cpu.V[0xF] = 1
			}
			cpu.I = r & addressMask
		case 0x0029:
			// LD F, Vx :: Set I = location of sprite for digit Vx.
			cpu.I = (smallFontOffset + uint16(cpu.V[x])*smallFontHeight) & addressMask
		case 0x0030:
			// LD HF, Vx :: Set I = location of the 10-byte sprite for digit Vx.
			cpu.I = (largeFontOffset + uint16(cpu.V[x])*largeFontHeight) & addressMask
		case 0x0033:
			// LD B, Vx :: Store BCD representation of Vx in memory locations I, I+1, and I+2.
			v := cpu.V[x]
			cpu.Memory.Write(cpu.I+0, v/100)
			cpu.Memory.Write(cpu.I+1, (v/10)%10)
			cpu.Memory.Write(cpu.I+2, v%10)
		case 0x0055:
			// LD [I], Vx :: Store registers V0 through Vx in memory starting at location I.
			for i := uint16(0); i <= x; i++ {
				cpu.Memory.Write(cpu.I+i, cpu.V[i])
			}
		case 0x0065:
			// LD Vx, [I] :: Read registers V0 through Vx from memory starting at location I.
			for i := uint16(0); i <= x; i++ {
				cpu.V[i] = cpu.Memory.Read(cpu.I + i)
			}
		case 0x0075:
			// LD R, Vx :: Store every V register in the flag registers.
			cpu.persistRegisters()
		case 0x0085:
			// LD Vx, R :: Read every V register back from the flag registers.
			cpu.restoreRegisters()
		default:
			return cpu.unknownOpCode(opCode)
		}

	default:
		return cpu.unknownOpCode(opCode)
	}

	return nil
}

func (cpu *Cpu) skip() {
	cpu.Pc = (cpu.Pc + 2) & addressMask
}

// drawSprite reads the sprite at I and draws it at (x, y).
// Returns whether there was a collision or not.
func (cpu *Cpu) drawSprite(x, y, n byte) bool {
	width, height := 8, int(n)
	if n == 0 {
		width, height = 16, 16
	}

	rows := make([]uint16, height)
	for row := range rows {
		if width == 16 {
			addr := cpu.I + uint16(row)*2
			rows[row] = uint16(cpu.Memory.Read(addr))<<8 | uint16(cpu.Memory.Read(addr+1))
		} else {
			rows[row] = uint16(cpu.Memory.Read(cpu.I + uint16(row)))
		}
	}

	return cpu.Screen.DrawSprite(x, y, width, rows)
}
